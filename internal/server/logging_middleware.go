package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/pkg/logging"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

var newRequestID = uuid.NewString

// withRequestLogger attaches a request-scoped entry to the context and logs
// one line per request once it completes.
func withRequestLogger(logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = newRequestID()
		}
		fields := logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		}
		if traceID := routing.TraceID(r); traceID != "" {
			fields["trace_id"] = traceID
		}
		entry := logger.WithFields(fields)
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), entry)))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		level := logrus.InfoLevel
		if rec.status >= http.StatusInternalServerError {
			level = logrus.ErrorLevel
		}
		entry.WithFields(logrus.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Log(level, "request completed")
	})
}

func logRequest(r *http.Request, level logrus.Level, msg string, fields logrus.Fields) {
	entry := logging.FromContext(r.Context())
	if entry == nil {
		return
	}
	entry.WithFields(fields).Log(level, msg)
}
