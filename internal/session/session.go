// Package session holds the API token for the running process and persists
// it between runs.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lk2023060901/execution-console/internal/auth"
)

// TokenKey is the storage key of the API token.
const TokenKey = "api_token"

// TokenStore persists the API token. Load returns "" with a nil error when
// nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Session is the in-memory holder of the bearer token. It is passed
// explicitly to whatever issues requests.
type Session struct {
	mu    sync.RWMutex
	token string
}

func New() *Session {
	return &Session{}
}

// Token returns the current token; it satisfies httpclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *Session) Clear() {
	s.SetToken("")
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Restore loads the persisted token into s.
func Restore(ctx context.Context, s *Session, store TokenStore) error {
	token, err := store.Load(ctx)
	if err != nil {
		return err
	}
	s.SetToken(token)
	return nil
}

// Identity is what can be learned from a token without verifying it.
type Identity struct {
	Opaque    bool
	Subject   string
	Username  string
	Email     string
	Issuer    string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Claims decodes token claims for display. Tokens that are not JWTs are
// reported as opaque.
func Claims(token string) (Identity, error) {
	claims, err := auth.ParseUnverified(token)
	if errors.Is(err, auth.ErrOpaqueToken) {
		return Identity{Opaque: true}, nil
	}
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		Subject:  claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Issuer:   claims.Issuer,
	}
	if id.Subject == "" {
		id.Subject = claims.UserID
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
