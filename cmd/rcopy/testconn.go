package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/rcopy/internal/rbd"
)

func newTestConnCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-conn",
		Short: "Test the connection to the destination host",
		Long: `Connect to the destination host over SSH and check that rbd and the
listener command are available there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.Destination.Validate(); err != nil {
				return err
			}
			if err := cfg.SSH.Validate(); err != nil {
				return fmt.Errorf("ssh: %w", err)
			}

			ctx := cmd.Context()
			fmt.Printf("Testing connection to %s@%s...\n", cfg.Destination.User, cfg.Destination.Host)

			client, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeClient(client)

			fmt.Printf("✓ Connected to %s\n", client.Addr())

			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}
			fmt.Println("✓ Remote shell responds")

			res, err := client.Run(ctx, rbd.CommandLine(cfg.RBDBinary, []string{"--version"}))
			if err != nil {
				return fmt.Errorf("failed to run rbd on %s: %w", cfg.Destination.Host, err)
			}
			if res.ExitStatus != 0 {
				return fmt.Errorf("rbd is not usable on %s (exit status %d): %s",
					cfg.Destination.Host, res.ExitStatus, strings.TrimSpace(string(res.Stderr)))
			}
			fmt.Printf("✓ %s\n", strings.TrimSpace(string(res.Stdout)))

			fields := strings.Fields(cfg.ListenCommand)
			if len(fields) == 0 {
				return fmt.Errorf("listen-command is required")
			}
			listener := fields[0]
			res, err = client.Run(ctx, "command -v "+rbd.Quote(listener))
			if err != nil {
				return fmt.Errorf("failed to look up %s on %s: %w", listener, cfg.Destination.Host, err)
			}
			if res.ExitStatus != 0 {
				return fmt.Errorf("%s not found on %s", listener, cfg.Destination.Host)
			}
			fmt.Printf("✓ Listener %s found at %s\n", listener, strings.TrimSpace(string(res.Stdout)))

			fmt.Println("\nConnection test successful!")
			return nil
		},
	}
}
