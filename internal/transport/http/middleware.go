package http

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware creates HTTP middleware for logging requests and responses
type LoggingMiddleware struct {
	logger  logrus.FieldLogger
	verbose bool
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger logrus.FieldLogger, verbose bool) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger:  logger,
		verbose: verbose,
	}
}

// loggingResponseWriter wraps http.ResponseWriter to capture response details
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.body != nil {
		lrw.body.Write(b)
	}
	return lrw.ResponseWriter.Write(b)
}

// Middleware returns the HTTP logging middleware function
func (l *LoggingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.verbose {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		entry := l.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"remote": r.RemoteAddr,
		})

		if r.Method == http.MethodPost && r.Body != nil {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				entry.WithError(err).Warn("failed to read request body")
			} else {
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > 0 {
					entry = entry.WithField("request_body", string(bodyBytes))
				}
			}
		}
		entry.Info("http request")

		lrw := &loggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(lrw, r)

		entry = entry.WithFields(logrus.Fields{
			"status":   lrw.statusCode,
			"duration": time.Since(start).String(),
		})
		if lrw.statusCode >= 400 && lrw.body.Len() > 0 {
			entry = entry.WithField("error_body", lrw.body.String())
		}
		entry.Info("http response")
	})
}
