package netatmo

import (
	"sync"
	"time"
)

// Credentials is the OAuth state for the public data API. It is seeded once
// from configuration at startup and replaced only by a successful refresh
// exchange.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	Expiry       time.Time
}

// CredentialStore owns the mutable OAuth state shared by every poll. All
// reads and the refresh swap go through the mutex, so overlapping polls can
// never observe a half-applied refresh.
type CredentialStore struct {
	mu    sync.Mutex
	creds Credentials
}

// NewCredentialStore seeds the store with the startup credentials.
func NewCredentialStore(creds Credentials) *CredentialStore {
	return &CredentialStore{creds: creds}
}

// Current returns a snapshot of the credentials.
func (s *CredentialStore) Current() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Replace atomically installs the tokens from a refresh exchange. An empty
// refresh token keeps the previous one, since some token endpoints omit it
// when it is still valid.
func (s *CredentialStore) Replace(accessToken, refreshToken string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.AccessToken = accessToken
	if refreshToken != "" {
		s.creds.RefreshToken = refreshToken
	}
	s.creds.Expiry = expiry
}
