package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest-ai/tasknest/internal/agent"
	"github.com/tasknest-ai/tasknest/internal/auth"
	"github.com/tasknest-ai/tasknest/internal/chread"
	"github.com/tasknest-ai/tasknest/internal/storage"
	"github.com/tasknest-ai/tasknest/internal/taskstore"
)

// ChatAgent is the command interpreter as the HTTP layer sees it.
type ChatAgent interface {
	Handle(ctx context.Context, ownerID, message string) (*agent.Result, error)
}

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Auth   auth.Authenticator
	Agent  ChatAgent
	Tasks  taskstore.Store
	Writer storage.EventWriter
	Reader *chread.Reader // nil if ClickHouse unavailable
	Logger *zap.Logger
}

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey int

const identityCtxKey contextKey = iota

// identityFromContext extracts the authenticated identity from the request context.
func identityFromContext(ctx context.Context) *auth.Identity {
	v, _ := ctx.Value(identityCtxKey).(*auth.Identity)
	return v
}

// authMiddleware validates the Bearer token, resolves the owner, and enforces
// that the {user_id} path segment matches the resolved identity. Nothing past
// this middleware runs for another user's path.
func (d *Dependencies) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Missing or invalid Authorization header"})
			return
		}

		identity, err := d.Auth.Authenticate(r.Context(), token)
		if err != nil {
			d.Logger.Warn("auth failed", zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Invalid credentials"})
			return
		}

		if pathUser := r.PathValue("user_id"); pathUser != identity.UserID {
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Credentials do not match requested user"})
			return
		}

		ctx := context.WithValue(r.Context(), identityCtxKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// --- JSON helpers ---

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// readJSON decodes a JSON request body into the given pointer.
func readJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Request logging ---

func requestLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// --- CORS ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
