// Package credentials holds the process-wide OAuth2 token pair.
//
// The [Store] is written only by the credential refresher and read by the playback client on
// every request through its [oauth2.TokenSource] implementation. Writes replace the whole token,
// so a reader sees either the old token or the new one, never a mix.
package credentials

import (
	"fmt"
	"sync"

	"github.com/desertthunder/nowplaying/internal/shared"
	"golang.org/x/oauth2"
)

// Store is an exclusive-write, shared-read cell for the current [oauth2.Token].
type Store struct {
	mu    sync.RWMutex
	token oauth2.Token
}

// NewStore seeds a store from a bootstrap refresh token. The access token is empty until the first refresh.
func NewStore(refreshToken string) (*Store, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	return &Store{token: oauth2.Token{RefreshToken: refreshToken}}, nil
}

// Current returns a copy of the stored token.
func (s *Store) Current() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.token
	return &t
}

// Replace installs a renewed token. A renewed token without a refresh token keeps the previous one,
// since the token endpoint may omit it when it is not rotated.
func (s *Store) Replace(t *oauth2.Token) error {
	if t == nil || t.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrRefreshFailed)
	}

	next := *t
	s.mu.Lock()
	defer s.mu.Unlock()
	if next.RefreshToken == "" {
		next.RefreshToken = s.token.RefreshToken
	}
	s.token = next
	return nil
}

// Token implements [oauth2.TokenSource]. It fails with [shared.ErrNotAuthenticated] until the first refresh lands.
//
// An expired token is still returned: renewing is the refresher's job, and the upstream API
// reports the expiry as a normal query failure.
func (s *Store) Token() (*oauth2.Token, error) {
	t := s.Current()
	if t.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token yet", shared.ErrNotAuthenticated)
	}
	return t, nil
}
