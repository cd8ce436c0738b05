package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/config"
	"github.com/jbweber/rcopy/internal/loader"
	"github.com/jbweber/rcopy/internal/output"
	"github.com/jbweber/rcopy/internal/rbd"
	"github.com/jbweber/rcopy/internal/selector"
	"github.com/jbweber/rcopy/internal/status"
	"github.com/jbweber/rcopy/internal/transfer"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootOptions holds the flags that only shape this invocation; everything
// else goes through config.Load.
type rootOptions struct {
	configFile   string
	outputFormat string
	noHeaders    bool
	reportFile   string
	dryRun       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rcopy <src-pool>/<src-image> <dest-pool>[/<dest-image>]",
		Short: "rcopy - copy rbd images to another Ceph cluster",
		Long: `rcopy copies rbd images from the local Ceph cluster to a pool on another host.

The destination host runs "nc -l PORT | rbd import" started over SSH; the local
"rbd export" stream is sent to it over a plain TCP connection.

The source image may contain '*' to copy every image whose name contains the
rest of the pattern. The destination may be a pool, in which case image names
are kept, or pool/image to rename a single image.

Environment:
  destination_host  Destination host (or -h/--destination-host)
  USER              Remote login user
  PORT              Relay port (default 19000)
Every setting can also be given as RCOPY_<FLAG_NAME> or in the --config file.

Example:
  rcopy rbd/vm-disk-1 backup -h ceph-b
  rcopy --force -e ec-data volumes/volume-* volumes -h ceph-b`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args, opts)
		},
	}

	pf := cmd.PersistentFlags()

	// -h is the destination host, so help only gets the long form
	pf.Bool("help", false, "Help for rcopy")

	pf.StringVar(&opts.configFile, "config", "", "YAML config file")
	pf.StringVarP(&opts.outputFormat, "output", "o", string(output.FormatTable), "Output format: table, yaml or json")
	pf.BoolVar(&opts.noHeaders, "no-headers", false, "Omit table headers")
	pf.String(config.KeyLogLevel, config.DefaultLogLevel, "Log level: debug, info, warn, error")

	pf.StringP(config.KeyDestinationHost, "h", "", "Destination host (env destination_host)")
	pf.String(config.KeyUser, "", "Remote login user (env USER)")
	pf.Int(config.KeySSHPort, 0, "SSH port (default from ~/.ssh/config, then 22)")
	pf.StringP(config.KeyIdentityFile, "i", "", "SSH private key")
	pf.String(config.KeyPassphrase, "", "SSH private key passphrase")
	pf.String(config.KeyPassword, "", "SSH password")
	pf.String(config.KeyKnownHosts, "", "known_hosts file (default ~/.ssh/known_hosts)")
	pf.Bool(config.KeyStrictHostKey, false, "Verify the destination host key")
	pf.Duration(config.KeyConnectTimeout, config.DefaultConnTimeout, "SSH connect timeout")
	pf.String(config.KeyRBDBinary, config.DefaultRBDBinary, "rbd executable, local and remote")

	f := cmd.Flags()
	f.BoolP(config.KeyForce, "f", false, "Overwrite destination images")
	f.StringP(config.KeyDataPool, "e", "", "Data pool for the destination images")
	f.Int(config.KeyPort, config.DefaultPort, "Relay port on the destination host (env PORT)")
	f.String(config.KeyListenCommand, config.DefaultListenCommand, "Remote listener command; the port is appended")
	f.Duration(config.KeySettleDelay, config.DefaultSettleDelay, "Wait after starting the remote listener")
	f.Duration(config.KeyBetweenDelay, config.DefaultBetweenDelay, "Wait between transfers")
	f.Bool(config.KeyProgress, false, "Show a progress bar")
	f.StringVar(&opts.reportFile, "report", "", "Write a YAML transfer report to this file")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Print the transfers without running them")

	cmd.AddCommand(newImagesCmd(opts))
	cmd.AddCommand(newInfoCmd(opts))
	cmd.AddCommand(newTestConnCmd(opts))
	cmd.AddCommand(newReportCmd(opts))

	return cmd
}

func runCopy(cmd *cobra.Command, args []string, opts *rootOptions) error {
	src, err := selector.ParseSource(args[0])
	if err != nil {
		return err
	}
	dest, err := selector.ParseDestination(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	local := rbd.NewManager(rbd.LocalRunner{Binary: cfg.RBDBinary})

	pairs, err := transfer.Plan(ctx, src, dest, local)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		_, _ = fmt.Fprintf(out, "No images in pool %s match %s\n", src.Pool, src.Image)
		return nil
	}

	copyOpts := transfer.Options{
		Host:          cfg.Destination.Host,
		Port:          cfg.Destination.Port,
		DataPool:      cfg.DataPool,
		Force:         cfg.Force,
		ListenCommand: cfg.ListenCommand,
		RBDBinary:     cfg.RBDBinary,
		SettleDelay:   cfg.SettleDelay,
		BetweenDelay:  cfg.BetweenDelay,
		Progress:      cfg.Progress,
		Out:           out,
		Logger:        logrus.StandardLogger(),
	}

	if opts.dryRun {
		return printPlan(out, opts, copyOpts, pairs)
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		// Nothing was copied; the report still records the first transfer
		tr := transfer.NewRecord(pairs[0], copyOpts)
		status.TransitionToFailed(tr, "ConnectFailed", err)
		writeReport(opts, []*v1alpha1.ImageTransfer{tr})
		return err
	}
	defer closeClient(client)

	copyOpts.Host = client.Hostname()
	remoteImages := rbd.NewManager(rbd.ShellRunner{Shell: client, Binary: cfg.RBDBinary})
	copier := transfer.NewCopier(local, remoteImages, client, copyOpts)

	transfers, runErr := copier.Run(ctx, pairs)
	writeReport(opts, transfers)
	if runErr != nil {
		return runErr
	}

	return printTransfers(out, opts, transfers)
}

// writeReport saves transfers to --report when it is set. A failure to
// write is only logged.
func writeReport(opts *rootOptions, transfers []*v1alpha1.ImageTransfer) {
	if opts.reportFile == "" {
		return
	}
	list := v1alpha1.NewImageTransferList(derefTransfers(transfers))
	if err := loader.SaveToFile(list, opts.reportFile); err != nil {
		logrus.WithError(err).Warn("Failed to write report")
	}
}

// printPlan shows what a run would do without touching either cluster's images.
func printPlan(w io.Writer, opts *rootOptions, copyOpts transfer.Options, pairs []selector.Pair) error {
	transfers := make([]*v1alpha1.ImageTransfer, 0, len(pairs))
	for _, p := range pairs {
		transfers = append(transfers, transfer.NewRecord(p, copyOpts))
	}

	if output.Format(opts.outputFormat) != output.FormatTable {
		return printTransfers(w, opts, transfers)
	}

	for _, tr := range transfers {
		_, _ = fmt.Fprintf(w, "Would migrate %s to %s\n", tr.Spec.Source, tr.Spec.Destination)
		_, _ = fmt.Fprintf(w, "  remote: %s\n", tr.Annotations[v1alpha1.AnnotationImportCommand])
		_, _ = fmt.Fprintf(w, "  local:  %s\n", tr.Annotations[v1alpha1.AnnotationExportCommand])
	}
	return nil
}

func printTransfers(w io.Writer, opts *rootOptions, transfers []*v1alpha1.ImageTransfer) error {
	formatter, err := newFormatter(opts)
	if err != nil {
		return err
	}

	result, err := formatter.FormatTransfers(transfers)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	_, err = fmt.Fprint(w, result)
	return err
}

func newFormatter(opts *rootOptions) (output.Formatter, error) {
	if err := output.ValidateFormat(opts.outputFormat); err != nil {
		return nil, err
	}
	return output.NewFormatter(output.Options{
		Format:    output.Format(opts.outputFormat),
		NoHeaders: opts.noHeaders,
	})
}

// loadConfig merges defaults, --config, environment and flags, and applies
// the log level.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags(), opts.configFile)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log-level: %w", err)
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: lvl < logrus.DebugLevel,
	})
	return nil
}

func derefTransfers(in []*v1alpha1.ImageTransfer) []v1alpha1.ImageTransfer {
	out := make([]v1alpha1.ImageTransfer, 0, len(in))
	for _, t := range in {
		out = append(out, *t)
	}
	return out
}
