package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ocrjobs/internal/core/langs"
	"ocrjobs/internal/modkit"
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/platform/store"
	dom "ocrjobs/internal/services/ocrjobs/domain"
	ocrmod "ocrjobs/internal/services/ocrjobs/module"

	"github.com/spf13/cobra"
)

// jobFlags are shared by submit and ocr
type jobFlags struct {
	requester string
	languages string
	noCloud   bool
}

func (f *jobFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.requester, "requester", "r", "ctl", "requester id results are addressed to")
	cmd.Flags().StringVarP(&f.languages, "lang", "l", "", "comma separated OCR languages, e.g. en,ru")
	cmd.Flags().BoolVar(&f.noCloud, "no-cloud", false, "use local OCR only")
}

func (f *jobFlags) options() dom.Options {
	o := dom.Options{Languages: langs.Split(f.languages), UseCloudOCR: !f.noCloud}
	if len(o.Languages) == 0 {
		o.Languages = []string{"eng"}
	}
	return o
}

func newSubmitCmd() *cobra.Command {
	var f jobFlags
	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Queue a local image or PDF for the workers",
		Long: `Copy a file into the spool directory and queue it. A worker picks it up and
delivers the result to the requester. Identical files already processed are
answered from the cache without queueing.`,
		Example: `  ocrjobsctl submit scan.pdf -r 123456 -l en,ru`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mod, closeStore, err := openModule(ctx, "ctl", ocrmod.Injected{})
			if err != nil {
				return err
			}
			defer closeStore()

			path, err := spoolCopy(args[0], mod.Options().SpoolDir)
			if err != nil {
				return err
			}
			ports := mod.Ports().(ocrmod.Ports)
			rc, err := ports.Submit.Submit(ctx, dom.Submission{
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
				fmt.Fprintf(cmd.OutOrStdout(), "cached %s -> %s\n", rc.Fingerprint, rc.Entry.ResultLocation)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s (fingerprint %s)\n", rc.JobID, rc.Fingerprint)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

// openModule opens the configured stores and builds the ocrjobs module over them
func openModule(ctx context.Context, tag string, in ocrmod.Injected) (*ocrmod.Module, func(), error) {
	root := config.New()
	l := logger.Get()
	st, err := store.Open(ctx, store.ConfigFromEnv(root, tag), store.WithLogger(*l))
	if err != nil {
		return nil, nil, err
	}
	if err := st.Shared(); err != nil {
		_ = st.Close(ctx)
		return nil, nil, err
	}
	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, KV: st.KV, Log: *l}
	// submit and depth never run OCR here
	mod := ocrmod.New(deps, ocrmod.Options{LocalOnly: true}, modkit.WithPorts(in))
	return mod, func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}, nil
}

// spoolCopy copies src into dir; jobs own and remove their input file
func spoolCopy(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, "ctl-*"+strings.ToLower(filepath.Ext(src)))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
