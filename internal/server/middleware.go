// internal/server/middleware.go
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
)

// statusWriter captures the response status code and size.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

// requestLogger emits one log line per request and stores a request-scoped
// logger on the context.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())
			reqLog := log.WithFields(map[string]interface{}{"request_id": requestID})

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			duration := time.Since(start)
			route := routePattern(r)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      ww.status,
				"bytes":       ww.bytes,
				"duration_ms": duration.Milliseconds(),
				"remote_addr": r.RemoteAddr,
			}

			switch {
			case ww.status >= http.StatusInternalServerError:
				reqLog.Error("request completed", fields)
			case ww.status >= http.StatusBadRequest:
				reqLog.Warn("request completed", fields)
			default:
				reqLog.Info("request completed", fields)
			}
		})
	}
}

// recoverer turns a panic into a JSON 500 response.
func recoverer(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context(), log).Error("panic recovered", map[string]interface{}{
					"panic": fmt.Sprintf("%v", rec),
					"path":  r.URL.Path,
				})
				apperrors.WriteError(w, http.StatusInternalServerError,
					apperrors.New(apperrors.ErrCodeInternal, "Unexpected error", fmt.Errorf("%v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// enabled answers 503 HANDLER_DISABLED when taskType is switched off.
func (s *Server) enabled(taskType string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isEnabled(taskType) {
			apperrors.WriteError(w, http.StatusServiceUnavailable, apperrors.NewHandlerDisabledError(taskType))
			return
		}
		h(w, r)
	}
}
