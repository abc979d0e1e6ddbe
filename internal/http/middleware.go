package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const correlationHeader = "X-Correlation-ID"

// RequestLogger creates a zerolog-based request logger middleware
func RequestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&requestLogFormatter{logger: logger})
}

// requestLogFormatter implements chi's LogFormatter interface
type requestLogFormatter struct {
	logger zerolog.Logger
}

func (f *requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{
		logger: f.logger.With().
			Str("correlation_id", r.Header.Get(correlationHeader)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger(),
	}
}

// requestLogEntry implements chi's LogEntry interface
type requestLogEntry struct {
	logger zerolog.Logger
}

func (e *requestLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	level := zerolog.DebugLevel
	if status >= 400 && status < 500 {
		level = zerolog.WarnLevel
	} else if status >= 500 {
		level = zerolog.ErrorLevel
	}

	e.logger.WithLevel(level).
		Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("Request completed")
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error().
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("Request panic")
}

// CorrelationID adds a correlation ID to requests if not present
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(correlationHeader, id)
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r)
	})
}
