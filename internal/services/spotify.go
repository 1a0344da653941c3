// Spotify implementation of [PlaybackSource] and [TokenRefresher]
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// ScopeCurrentlyPlaying is the only scope the service needs.
	ScopeCurrentlyPlaying = "user-read-currently-playing"

	defaultRedirectURI = "http://127.0.0.1:3000/callback"
)

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Tokens authorizes API requests. Required for playback queries, unused by refresh and auth.
	Tokens oauth2.TokenSource
	// HTTPClient is the base client for API and token requests. Defaults to [http.DefaultClient].
	HTTPClient *http.Client
	// APIBaseURL and TokenURL override the Spotify endpoints (tests).
	APIBaseURL string
	TokenURL   string
}

// SpotifyService queries the Spotify Web API for the current playback and refreshes tokens.
type SpotifyService struct {
	config     *oauth2.Config
	client     *spotify.Client
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = defaultRedirectURI
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       []string{ScopeCurrentlyPlaying},
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	s := &SpotifyService{config: config, httpClient: opts.HTTPClient}

	if opts.Tokens != nil {
		base := opts.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		apiClient := &http.Client{
			Transport: &oauth2.Transport{Source: opts.Tokens, Base: base},
			Timeout:   opts.HTTPClient.Timeout,
		}

		var clientOpts []spotify.ClientOption
		if opts.APIBaseURL != "" {
			clientOpts = append(clientOpts, spotify.WithBaseURL(opts.APIBaseURL))
		}
		s.client = spotify.New(apiClient, clientOpts...)
	}

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying [oauth2.Config].
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// CurrentlyPlaying queries the player endpoint and maps the response to a [models.Playback].
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (models.Playback, error) {
	if s.client == nil {
		return models.Playback{}, fmt.Errorf("%w: no token source configured", shared.ErrNotAuthenticated)
	}

	cp, err := s.client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return models.Playback{}, err
	}

	return playbackFrom(cp), nil
}

// playbackFrom maps a currently-playing response. A zero timestamp means the API answered 204 No Content.
func playbackFrom(cp *spotify.CurrentlyPlaying) models.Playback {
	if cp == nil || (cp.Item == nil && cp.Timestamp == 0) {
		return models.NothingPlaying()
	}
	if cp.Item == nil {
		return models.OtherPlayable()
	}

	artists := make([]string, 0, len(cp.Item.Artists))
	for _, a := range cp.Item.Artists {
		artists = append(artists, a.Name)
	}
	return models.TrackPlayback(artists, cp.Item.Name)
}

// Refresh runs the refresh_token grant with current's refresh token.
func (s *SpotifyService) Refresh(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error) {
	if current == nil || current.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	// A token with no access token is always invalid, so the source goes straight to the token endpoint.
	token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	return token, nil
}
