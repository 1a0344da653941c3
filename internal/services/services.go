// package services defines the external collaborators of the poller and refresher
package services

import (
	"context"

	"github.com/desertthunder/nowplaying/internal/models"
	"golang.org/x/oauth2"
)

// PlaybackSource answers "what is playing right now" for the tracked account.
type PlaybackSource interface {
	// CurrentlyPlaying runs one playback query. Transport and API failures are returned as errors;
	// callers fold them into a [models.KindQueryFailed] result.
	CurrentlyPlaying(ctx context.Context) (models.Playback, error)
}

// TokenRefresher exchanges a refresh token for a renewed token pair.
type TokenRefresher interface {
	// Refresh returns a renewed token. The result may omit the refresh token when it was not rotated.
	Refresh(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error)
}

// OAuthService exposes the authorization code flow used by the out-of-band auth command.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
}
