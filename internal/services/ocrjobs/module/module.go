// Package module wires the OCR job service, its adapters and its HTTP routes
package module

import (
	"context"
	"errors"
	"image"
	"io"
	"time"

	"ocrjobs/internal/adapters/ocr/tesseract"
	"ocrjobs/internal/adapters/ocr/vision"
	"ocrjobs/internal/adapters/pdf/poppler"
	"ocrjobs/internal/core/imageprep"
	"ocrjobs/internal/modkit"
	"ocrjobs/internal/modkit/httpkit"
	"ocrjobs/internal/platform/logger"
	ocrhttp "ocrjobs/internal/services/ocrjobs/http"
	"ocrjobs/internal/services/ocrjobs/pipeline"
	"ocrjobs/internal/services/ocrjobs/service"
)

// dialTimeout bounds the Vision client dial at startup
const dialTimeout = 10 * time.Second

// Module is the ocrjobs module
type Module struct {
	b     modkit.Built
	opts  Options
	svc   *service.Svc
	ports Ports
	lim   ocrhttp.Limits
	// owned clients this module dialed itself
	owned []io.Closer
}

// New loads Options from config, applies non-zero overrides and builds the service.
// Collaborators passed as Injected through modkit.WithPorts replace the defaults.
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("ocrjobs"),
		modkit.WithPrefix("/ocr"),
	}, opts...)...)

	o := merge(FromConfig(deps.Cfg), overrides)

	var in Injected
	if p, ok := b.Ports.(Injected); ok {
		in = p
	}

	local := in.Local
	if local == nil {
		local = tesseract.New(tesseract.Options{TessdataPrefix: o.TessdataPrefix})
	}
	var owned []io.Closer
	cloud := in.Cloud
	if cloud == nil && o.CloudEnabled {
		if c := dialVision(); c != nil {
			cloud = c
			owned = append(owned, c)
		}
	}
	pipe := pipeline.New(local,
		pipeline.WithCloud(cloud),
		pipeline.WithPreprocess(func(img image.Image) image.Image { return imageprep.Normalize(img) }),
	)

	split := in.Splitter
	if split == nil {
		split = poppler.New(poppler.Config{
			Pdfinfo:   o.Pdfinfo,
			Pdftotext: o.Pdftotext,
			Pdftoppm:  o.Pdftoppm,
			DPI:       o.RenderDPI,
			WorkDir:   o.SpoolDir,
		}, nil)
	}

	svc := service.New(deps, service.Config{
		RateMaxPerMinute:  o.RateMaxPerMinute,
		MaxConcurrentJobs: o.MaxConcurrentJobs,
		PartialEvery:      o.PartialEvery,
		CacheTTL:          o.CacheTTL,
		DeferDelay:        o.DeferDelay,
		ResultsDir:        o.ResultsDir,
		WorkerConcurrency: o.WorkerConcurrency,
		QueueTakeBatch:    o.QueueTakeBatch,
		LeaseFor:          o.LeaseFor,
		KeyPrefix:         o.KeyPrefix,
	}, service.Parts{
		Queue:    in.Queue,
		Pipeline: pipe,
		Splitter: split,
		Notifier: in.Notifier,
	})

	return &Module{
		b:     b,
		opts:  o,
		svc:   svc,
		ports: Ports{Submit: svc, Worker: svc, Exec: svc, Health: svc, Prefs: svc.Prefs()},
		lim:   ocrhttp.Limits{MaxUploadBytes: int64(o.MaxUploadMB) << 20, SpoolDir: o.SpoolDir, APIToken: o.APIToken},
		owned: owned,
	}
}

// Close releases the clients New dialed; injected collaborators stay open
func (m *Module) Close() error {
	var errs []error
	for _, c := range m.owned {
		errs = append(errs, c.Close())
	}
	m.owned = nil
	return errors.Join(errs...)
}

// dialVision returns nil when the client cannot be created; jobs then run on local OCR only
func dialVision() *vision.Client {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	c, err := vision.New(ctx, vision.CredentialsFromEnv())
	if err != nil {
		logger.Named("ocrjobs").Warn().Err(err).Msg("cloud OCR disabled: vision client unavailable")
		return nil
	}
	return c
}

// Options returns the effective options after config and overrides
func (m *Module) Options() Options { return m.opts }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.b.Prefix }

// MountRoutes mounts the job and preference routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	p := ocrhttp.Ports{Submit: m.svc, Health: m.svc, Prefs: m.ports.Prefs}
	m.b.Mount(r, func(rr httpkit.Router) { ocrhttp.Register(rr, p, m.lim) }, ocrhttp.Routes())
}
