package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// statusRecorder remembers the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// access holds what inner layers learn about a request after the access
// log middleware has already handed it on: the matched route template and
// the API error code, if the handler answered with one.
type access struct {
	route     string
	errorCode string
}

type accessKey struct{}

func accessFrom(ctx context.Context) *access {
	a, _ := ctx.Value(accessKey{}).(*access)
	return a
}

// SetErrorCode tags the request's access log line with an API error code.
func SetErrorCode(ctx context.Context, code string) {
	if a := accessFrom(ctx); a != nil {
		a.errorCode = code
	}
}

func routeTemplate(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unknown"
}

// Logger writes one line per request. Successful requests to a quiet path,
// such as a health check, are logged at trace level.
func Logger(log zerolog.Logger, quiet ...string) func(next http.Handler) http.Handler {
	quietPaths := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			a := &access{route: "unknown"}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), accessKey{}, a)))

			var evt *zerolog.Event
			_, isQuiet := quietPaths[r.URL.Path]
			switch {
			case rec.status >= 500:
				evt = log.Error()
			case rec.status >= 400:
				evt = log.Warn()
			case isQuiet:
				evt = log.Trace()
			default:
				evt = log.Debug()
			}
			if a.errorCode != "" {
				evt = evt.Str("error_code", a.errorCode)
			}

			evt.
				Str("request_id", RequestIDFrom(r.Context())).
				Str("method", r.Method).
				Str("route", a.route).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int64("bytes", rec.written).
				Dur("latency", time.Since(start)).
				Msg("http_request")
		})
	}
}
