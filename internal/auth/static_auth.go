package auth

import "context"

// StaticAuthenticator is a development-only authenticator that accepts any
// tnk_ token and derives the owner id from it. Never use with real data.
type StaticAuthenticator struct{}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (*Identity, error) {
	if len(token) < 8 {
		return nil, ErrUnauthorized
	}
	return &Identity{UserID: "dev-" + token[4:8]}, nil
}
