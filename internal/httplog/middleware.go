// Package httplog пишет access-лог HTTP-запросов в logrus.
package httplog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Middleware логирует каждый запрос: метод, путь, код ответа, размер и длительность.
// Ответы 5xx пишутся уровнем Warn, остальные — Debug, чтобы не шуметь в проде.
func Middleware(logger *log.Entry) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				entry := logger.WithFields(log.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      status,
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(started).Milliseconds(),
				})
				if requestID := middleware.GetReqID(r.Context()); requestID != "" {
					entry = entry.WithField("request_id", requestID)
				}
				if status >= http.StatusInternalServerError {
					entry.Warn("http request failed")
					return
				}
				entry.Debug("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
