// Package session holds the bearer token and the forced-logout path
// shared by every data store.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"hubclient/internal/apiclient"
)

// Session is the process-wide authentication state. It implements
// apiclient.TokenSource.
type Session struct {
	mu          sync.RWMutex
	token       string
	anonymousID string
	username    string
	invalidated bool
	hooks       []func()
}

func New(token string) *Session {
	return &Session{token: token}
}

// Token returns the current bearer token ("" when logged out).
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// AnonymousID returns the caller's identity on the platform.
func (s *Session) AnonymousID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anonymousID
}

// Username returns the display name bound to the session.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SetCredentials installs a fresh token and identity after login or
// key rotation.
func (s *Session) SetCredentials(token, anonymousID, username string) {
	s.mu.Lock()
	s.token = token
	s.anonymousID = anonymousID
	s.username = username
	s.invalidated = false
	s.mu.Unlock()
}

// OnLogout registers a callback fired once when the session becomes
// invalid (401/403 from the server or local expiry).
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Invalidate clears the token and fires the logout hooks exactly once.
func (s *Session) Invalidate() {
	s.mu.Lock()
	if s.invalidated {
		s.mu.Unlock()
		return
	}
	s.invalidated = true
	s.token = ""
	hooks := s.hooks
	s.mu.Unlock()
	log.Warn().Msg("session invalidated, forcing logout")
	for _, fn := range hooks {
		fn()
	}
}

// HandleAuthError invalidates the session when err signals a 401/403.
// Returns true when the error was an auth failure.
func (s *Session) HandleAuthError(err error) bool {
	if err == nil || !apiclient.IsAuthError(err) {
		return false
	}
	s.Invalidate()
	return true
}

// ExpiresAt parses the token's exp claim without verifying the
// signature (the client holds no signing key). Zero time when absent.
func (s *Session) ExpiresAt() time.Time {
	tok := s.Token()
	if tok == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Expired reports whether the token carries an exp claim in the past.
func (s *Session) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}
