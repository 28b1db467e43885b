// Package version provides information about the build version of the service.
package version

// BuildInfo holds version information about the service build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information for the named binary. The version, commit,
// and date variables are set at build time using -ldflags.
func Info(service string) BuildInfo {
	// Set via -ldflags "-X 'ocrjobs/internal/core/version.version=v0.0.1'
	// -X 'ocrjobs/internal/core/version.commit=abcd' -X 'ocrjobs/internal/core/version.date=2026-10-18'"
	if service == "" {
		service = "ocrjobs"
	}
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// Tag is the short version string reported to backends
func Tag() string { return version }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
