package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"ocrjobs/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo names this process in system.query_log: the app and its
// build version, the role (api, worker, bot, ctl), the go runtime, the vcs
// revision and the host.
func BuildClientInfo(app, role string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	product := func(name, v string) struct{ Name, Version string } {
		v = strings.TrimSpace(v)
		if v == "" {
			v = "unknown"
		}
		return struct{ Name, Version string }{strings.TrimSpace(name), v}
	}
	if strings.TrimSpace(app) == "" {
		app = "ocrjobs"
	}
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		product(app, version.Tag()),
		product("role", role),
		product("go", runtime.Version()),
		product("commit", revision()),
		product("host", host),
	}}
}

func revision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value[:min(7, len(s.Value))]
		}
	}
	return ""
}
