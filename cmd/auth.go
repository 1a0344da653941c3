package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth runs the authorization code flow once and prints the refresh token the service needs.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization, and exchanges the code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config, err := r.loadConfig(configPath)
	if err != nil {
		return err
	}

	sp := config.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or %s/%s",
			shared.ErrMissingCredentials, configPath, shared.EnvClientID, shared.EnvClientSecret)
	}

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
		RedirectURI:  sp.RedirectURI,
		HTTPClient:   r.httpClient,
		TokenURL:     r.spotifyAuth,
	})
	if err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = authTimeout
	}
	token, err := r.doOAuth(ctx, spotify, spotify.GetOAuthConfig().RedirectURL, !cmd.Bool("no-browser"), timeout)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("Refresh token:\n%s\n", token.RefreshToken)

	if !cmd.Bool("save") {
		r.writePlain("\nSet it as %s or re-run with --save to store it in %s\n", shared.EnvRefreshToken, configPath)
		return nil
	}

	// Environment overrides are not written back to disk.
	fileConfig, err := shared.LoadConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		fileConfig = shared.DefaultConfig()
		fileConfig.Credentials.Spotify.ClientID = sp.ClientID
	} else if err != nil {
		return err
	}
	fileConfig.Credentials.Spotify.RefreshToken = token.RefreshToken

	if err := shared.SaveConfig(configPath, fileConfig); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.writePlain("✓ Refresh token saved to %s\n", configPath)
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, redirectURI string, browser bool, timeout time.Duration) (*oauth2.Token, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state, redirectURI)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpServer := &http.Server{Addr: redirect.Host, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Serve(ctx, httpServer, r.logger)
	}()

	if browser {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
	}
	if !browser || r.openBrowser(authURL) != nil {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("callback server stopped: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	}

	cancel()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	return result.Token, nil
}
