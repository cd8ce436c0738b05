package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/loader"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var labelSelector string

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Show a saved transfer report",
		Long: `Print a report written by "rcopy --report FILE".

Output formats:
  -o table  Human-readable table (default)
  -o yaml   Full ImageTransferList resource
  -o json   Full ImageTransferList resource as JSON

Example:
  rcopy report nightly.yaml -l source-pool=rbd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := v1alpha1.ParseLabelSelector(labelSelector)
			if err != nil {
				return err
			}

			list, err := loader.LoadFromFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}

			transfers := make([]*v1alpha1.ImageTransfer, 0, len(list.Items))
			for i := range list.Items {
				if list.Items[i].MatchesLabels(sel) {
					transfers = append(transfers, &list.Items[i])
				}
			}

			return printTransfers(cmd.OutOrStdout(), opts, transfers)
		},
	}

	cmd.Flags().StringVarP(&labelSelector, "selector", "l", "", "Only show transfers matching key=value[,key=value] labels")

	return cmd
}
