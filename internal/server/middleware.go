package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/auth"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/syncengine"
)

type contextKey string

const identityKey contextKey = "identity"

// APIKeyAuth returns middleware that validates the X-API-Key header.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			if key != apiKey {
				writeError(w, http.StatusForbidden, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSync answers 503 while the server has no shared store configured.
func RequireSync(engine *syncengine.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || !engine.Configured() {
				writeError(w, http.StatusServiceUnavailable, syncengine.ErrNotConfigured.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate returns middleware that validates the bearer token and stores
// the caller's identity in the request context.
func Authenticate(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if issuer == nil {
				writeError(w, http.StatusServiceUnavailable, syncengine.ErrNotConfigured.Error())
				return
			}
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, syncengine.ErrAuthRequired.Error())
				return
			}
			id, err := issuer.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, syncengine.ErrAuthRequired.Error())
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFromContext returns the authenticated caller. The zero Identity
// (empty user) makes the engine fail with ErrAuthRequired.
func identityFromContext(r *http.Request) auth.Identity {
	if id, ok := r.Context().Value(identityKey).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Success: false, Error: msg})
}
