package otel

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// untracedPaths are polled often enough that spans would only be noise.
var untracedPaths = map[string]bool{
	"/api/health": true,
	"/ws":         true,
}

// HTTPMiddleware returns a chi-compatible middleware that creates a server span
// per request. Task IDs are collapsed out of span names.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return SpanName(r)
			}),
			otelhttp.WithFilter(func(r *http.Request) bool {
				return !untracedPaths[r.URL.Path]
			}),
		)
	}
}

// SpanName returns "METHOD route" with the task ID segment of research routes
// replaced by {id}, e.g. "GET /api/research/{id}/status".
func SpanName(r *http.Request) string {
	path := r.URL.Path
	const prefix = "/api/research/"
	if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" {
		if _, tail, found := strings.Cut(rest, "/"); found {
			path = prefix + "{id}/" + tail
		} else {
			path = prefix + "{id}"
		}
	}
	return r.Method + " " + path
}
