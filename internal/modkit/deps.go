// Package modkit provides module wiring and core deps
package modkit

import (
	"ocrjobs/internal/modkit/repokit"
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/platform/store"
)

// Deps holds core dependencies passed to modules; nil stores mean in process fallbacks
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	KV  store.KV
}
