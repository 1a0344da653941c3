// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/desertthunder/nowplaying/internal/models"
	"golang.org/x/oauth2"
)

// MockSource is a test double for [services.PlaybackSource].
//
// It returns Result/Err on every call. With Block set it waits for the context instead, like an upstream that never answers.
type MockSource struct {
	mu     sync.Mutex
	Result models.Playback
	Err    error
	Block  bool
	calls  int
}

func (m *MockSource) CurrentlyPlaying(ctx context.Context) (models.Playback, error) {
	m.mu.Lock()
	m.calls++
	block, result, err := m.Block, m.Result, m.Err
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return models.Playback{}, ctx.Err()
	}
	return result, err
}

// Set swaps the scripted response.
func (m *MockSource) Set(result models.Playback, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Result, m.Err = result, err
}

// Calls reports how many queries were made.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockRefresher is a test double for [services.TokenRefresher].
//
// Each call pops the next entry of Errs (nil once exhausted); a nil error yields a token with access token Access.
type MockRefresher struct {
	mu     sync.Mutex
	Access string
	Errs   []error
	calls  int
	seen   []*oauth2.Token
}

func (m *MockRefresher) Refresh(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.seen = append(m.seen, current)

	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			return nil, err
		}
	}
	access := m.Access
	if access == "" {
		access = "access"
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

// Calls reports how many refreshes were attempted.
func (m *MockRefresher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Seen returns the tokens passed to each refresh.
func (m *MockRefresher) Seen() []*oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*oauth2.Token(nil), m.seen...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
