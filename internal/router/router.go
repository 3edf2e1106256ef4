package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/award"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/utilities"
)

// statusRecorder wraps http.ResponseWriter to capture status and size.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.size += n
	return n, err
}

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware logs every request at debug level, and failures at warn.
// A request id is taken from the incoming header or minted, echoed back and
// attached to the log line.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = utilities.NewKSUID()
			}
			w.Header().Set(RequestIDHeader, reqID)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.Debugw
			if status >= http.StatusInternalServerError {
				log = logger.Warnw
			}
			log("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", rec.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers. The API only
// speaks JSON, so the content policy forbids everything.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if h.Get("Content-Security-Policy") == "" {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			if r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Prefix is the path prefix of every API route.
const Prefix = "/pitchfork-api-award"

// RegisterRoutes mounts HTTP handlers on the standard library's http.ServeMux.
// Metrics are served at /metrics outside the API prefix.
func RegisterRoutes(logger *zap.SugaredLogger, awards *award.Handler, settings *setting.Handler) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET "+Prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// users and events
	mux.HandleFunc("POST "+Prefix+"/users", awards.Register)
	mux.HandleFunc("GET "+Prefix+"/users/{id}/wallet", awards.Wallet)
	mux.HandleFunc("POST "+Prefix+"/users/{id}/pr", awards.PostPR)
	mux.HandleFunc("POST "+Prefix+"/users/{id}/ea", awards.PostEA)
	mux.HandleFunc("POST "+Prefix+"/awards", awards.Award)

	// ledger
	mux.HandleFunc("GET "+Prefix+"/ledger", awards.Ledger)
	mux.HandleFunc("GET "+Prefix+"/ledger/daily", awards.DailyTotals)

	// settings
	mux.HandleFunc("GET "+Prefix+"/settings", settings.Get)
	mux.HandleFunc("POST "+Prefix+"/settings/override", settings.Override)

	mux.Handle("GET /metrics", metrics.Handler())

	// wrap with security headers middleware then logging middleware
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
