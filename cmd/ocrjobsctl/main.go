// Command ocrjobsctl submits files, inspects the queue and runs one-off OCR
package main

import (
	"fmt"
	"os"

	"ocrjobs/internal/core/version"
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Warn().Err(err).Msg("dotenv not loaded")
	}
	if err := newRootCmd().Execute(); err != nil {
		logger.Named("ctl").Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ocrjobsctl",
		Short:         "Operate the OCR job queue",
		Version:       version.Info("ocrjobsctl").Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSubmitCmd(), newDepthCmd(), newOCRCmd())
	return root
}
