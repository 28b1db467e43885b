package poppler

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"ocrjobs/internal/core/textclean"
	"ocrjobs/internal/platform/logger"
)

// Runner executes external commands; tests substitute it
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes name and captures both streams
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	log := logger.C(ctx)
	if err != nil {
		log.Error().Err(err).Str("cmd", name).Str("args", strings.Join(args, " ")).
			Dur("took", time.Since(start)).Str("stderr", textclean.Truncate(errb.String(), 8<<10)).Msg("exec failed")
	} else {
		log.Debug().Str("cmd", name).Dur("took", time.Since(start)).Int("stdout_bytes", out.Len()).Msg("exec ok")
	}
	return out.Bytes(), errb.Bytes(), err
}
