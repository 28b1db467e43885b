package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/services/ocrjobs/domain"
	ocrmod "ocrjobs/internal/services/ocrjobs/module"
	"ocrjobs/internal/services/ocrjobs/repo"

	"github.com/spf13/cobra"
)

func newOCRCmd() *cobra.Command {
	var (
		f       jobFlags
		output  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ocr [file]",
		Short: "Extract text from a local image or PDF in this process",
		Long: `Run one job through the same pipeline the workers use, without Postgres or
Redis. Progress goes to stderr and the text to stdout or --output.`,
		Example: `  ocrjobsctl ocr receipt.jpg
  ocrjobsctl ocr contract.pdf -l de,en -o contract.txt --no-cloud`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			q := repo.NewMemory(nil)
			deps := modkit.Deps{Cfg: config.New(), Log: *logger.Get()}
			mod := ocrmod.New(deps, ocrmod.Options{ResultsDir: os.TempDir()},
				modkit.WithPorts(ocrmod.Injected{Queue: q, Notifier: stderrNotifier{w: cmd.ErrOrStderr()}}))
			ports := mod.Ports().(ocrmod.Ports)
			defer func() { _ = mod.Close() }()

			path, err := spoolCopy(args[0], mod.Options().SpoolDir)
			if err != nil {
				return err
			}
			rc, err := ports.Submit.Submit(ctx, domain.Submission{
				RequesterID: f.requester,
				FilePath:    path,
				FileName:    filepath.Base(args[0]),
				Options:     f.options(),
			})
			if err != nil {
				_ = os.Remove(path)
				return err
			}
			if rc.Cached {
				b, err := os.ReadFile(rc.Entry.ResultLocation)
				if err != nil {
					return err
				}
				return writeText(cmd.OutOrStdout(), output, string(b))
			}

			jobs, err := q.Lease(ctx, "ctl", 1, timeout)
			if err != nil {
				return err
			}
			if len(jobs) != 1 {
				return fmt.Errorf("job %s not leased", rc.JobID)
			}
			out := ports.Exec.Execute(ctx, jobs[0].JobRequest)
			_ = q.Complete(ctx, jobs[0].ID, "ctl")
			if out.State != domain.StateCompleted {
				return errors.New(out.Reason)
			}
			return writeText(cmd.OutOrStdout(), output, out.Text)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: stdout)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "processing timeout")
	return cmd
}

func writeText(stdout io.Writer, path, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}

// stderrNotifier prints what a chat user would receive
type stderrNotifier struct{ w io.Writer }

func (n stderrNotifier) NotifyText(_ context.Context, _ string, text string) error {
	_, err := fmt.Fprintln(n.w, text)
	return err
}

func (n stderrNotifier) NotifyArtifact(_ context.Context, _ string, path, caption string) error {
	_, err := fmt.Fprintf(n.w, "%s\n(full text: %s)\n", caption, path)
	return err
}
