package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/net/middleware"
)

// CommonStack is the middleware every API scope gets
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}),
		middleware.RecoverJSON(phttp.JSON),
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		// uploads are spooled before the handler returns
		middleware.Timeout(2 * time.Minute),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
