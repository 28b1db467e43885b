// Package api provides the HTTP API for the application
package api

import (
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/store"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/modkit/httpkit"
	"ocrjobs/internal/modkit/module"
	"ocrjobs/internal/modkit/swaggerkit"

	metamod "ocrjobs/internal/services/api/meta/module"
	ocrmod "ocrjobs/internal/services/ocrjobs/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool

	// OCR overrides the ocrjobs options read from config
	OCR []modkit.Option
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg: opt.Config,
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
		deps.KV = opt.Store.KV
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// the API only submits; workers run in ocrjobs-worker
	docs := modkit.WithSwagger(opt.EnableSwagger)
	mods := []module.Module{
		metamod.New(deps, docs),
		ocrmod.New(deps, ocrmod.Options{LocalOnly: true}, append([]modkit.Option{docs}, opt.OCR...)...),
	}

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
