package main

import (
	"fmt"

	ocrmod "ocrjobs/internal/services/ocrjobs/module"

	"github.com/spf13/cobra"
)

func newDepthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "depth",
		Short: "Print the number of queued and running jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mod, closeStore, err := openModule(cmd.Context(), "ctl", ocrmod.Injected{})
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := mod.Ports().(ocrmod.Ports).Health.QueueDepth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
