package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/rcopy/internal/rbd"
	"github.com/jbweber/rcopy/internal/selector"
)

func newImagesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "images <pool>[/<pattern>]",
		Short: "List local images a copy would select",
		Long: `List images in a local pool with their size and layout.

A pattern selects images the same way the copy source does, so this shows
exactly what "rcopy <pool>/<pattern> ..." would transfer.

Example:
  rcopy images rbd
  rcopy images volumes/volume-*`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := imageSelector(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			formatter, err := newFormatter(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			mgr := rbd.NewManager(rbd.LocalRunner{Binary: cfg.RBDBinary})

			names, err := mgr.ListImages(ctx, src.Pool)
			if err != nil {
				return err
			}

			var infos []*rbd.ImageInfo
			for _, name := range selector.Filter(src, names) {
				info, err := mgr.ImageInfo(ctx, rbd.Ref{Pool: src.Pool, Image: name})
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}

			result, err := formatter.FormatImages(infos)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), result)
			return err
		},
	}
}

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <pool>/<image>",
		Short: "Show detailed information about a local image",
		Long: `Display rbd info for a single image in the local cluster.

Example:
  rcopy info rbd/vm-disk-1 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := selector.ParseSource(args[0])
			if err != nil {
				return err
			}
			if src.HasWildcard() {
				return fmt.Errorf("info takes a single image, got pattern %s", src)
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			formatter, err := newFormatter(opts)
			if err != nil {
				return err
			}

			mgr := rbd.NewManager(rbd.LocalRunner{Binary: cfg.RBDBinary})
			info, err := mgr.ImageInfo(cmd.Context(), src.Ref())
			if err != nil {
				return err
			}

			result, err := formatter.FormatImages([]*rbd.ImageInfo{info})
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), result)
			return err
		},
	}
}

// imageSelector parses "pool" or "pool/pattern". A bare pool selects every image.
func imageSelector(arg string) (selector.Source, error) {
	if !strings.Contains(arg, selector.Separator) {
		return selector.Source{Pool: arg, Image: selector.Wildcard}, nil
	}
	return selector.ParseSource(arg)
}
