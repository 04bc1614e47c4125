package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Identity is the resolved task owner for one request. Every store operation
// downstream is scoped to UserID; nothing the model proposes can widen it.
type Identity struct {
	UserID string
}

// ErrUnauthorized is returned for missing, malformed, or unverifiable
// credentials. No tool executes when authentication fails.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves a bearer credential to a task owner.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// ExtractBearerToken pulls a tnk_ API token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrUnauthorized
	}
	token := strings.TrimPrefix(header, "Bearer ")
	token = strings.TrimPrefix(token, "bearer ")
	if !strings.HasPrefix(token, "tnk_") {
		return "", ErrUnauthorized
	}
	return token, nil
}
