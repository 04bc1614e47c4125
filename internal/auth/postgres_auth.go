package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenStore abstracts DB queries for testability.
type TokenStore interface {
	LookupByPrefix(ctx context.Context, prefix string) (*tokenRow, error)
}

type tokenRow struct {
	UserID    string
	TokenHash string
}

// sqlTokenStore is the real implementation using *sql.DB.
type sqlTokenStore struct {
	db *sql.DB
}

func (s *sqlTokenStore) LookupByPrefix(ctx context.Context, prefix string) (*tokenRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, token_hash
		FROM api_tokens
		WHERE token_prefix = $1
	`, prefix)

	var r tokenRow
	if err := row.Scan(&r.UserID, &r.TokenHash); err != nil {
		return nil, err
	}
	return &r, nil
}

// PostgresAuthenticator validates API tokens against the api_tokens table.
// Identity resolution always fails closed: an unverifiable token is rejected,
// never mapped to a guessed owner.
type PostgresAuthenticator struct {
	store  TokenStore
	cache  *Cache
	logger *zap.Logger
}

// PostgresAuthConfig configures the PostgresAuthenticator.
type PostgresAuthConfig struct {
	DB       *sql.DB
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// NewPostgresAuthenticator creates a new PostgresAuthenticator.
func NewPostgresAuthenticator(cfg PostgresAuthConfig) *PostgresAuthenticator {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &PostgresAuthenticator{
		store:  &sqlTokenStore{db: cfg.DB},
		cache:  NewCache(ttl),
		logger: cfg.Logger,
	}
}

// newPostgresAuthenticatorWithStore creates an authenticator with a custom store (for testing).
func newPostgresAuthenticatorWithStore(store TokenStore, cache *Cache, logger *zap.Logger) *PostgresAuthenticator {
	return &PostgresAuthenticator{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (a *PostgresAuthenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if len(token) < 8 {
		return nil, ErrUnauthorized
	}

	cacheResult := a.cache.Get(token)
	if cacheResult.Hit {
		if cacheResult.NeedsRefresh {
			go a.refreshInBackground(token)
		}
		return cacheResult.Identity, nil
	}

	identity, err := a.authenticateFromDB(ctx, token)
	if err != nil {
		return nil, err
	}

	a.cache.Set(token, identity)
	return identity, nil
}

func (a *PostgresAuthenticator) authenticateFromDB(ctx context.Context, token string) (*Identity, error) {
	prefix := token[:8]

	row, err := a.store.LookupByPrefix(ctx, prefix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("authenticateFromDB: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.TokenHash), []byte(token)); err != nil {
		return nil, ErrUnauthorized
	}

	return &Identity{UserID: row.UserID}, nil
}

func (a *PostgresAuthenticator) refreshInBackground(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	identity, err := a.authenticateFromDB(ctx, token)
	if err != nil {
		a.logger.Warn("background auth refresh failed", zap.Error(err))
		a.cache.Delete(token)
		return
	}
	a.cache.Set(token, identity)
}
