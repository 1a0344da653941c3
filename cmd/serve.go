package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/credentials"
	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/status"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/urfave/cli/v3"
)

// httpTask adapts the HTTP server to [tasks.Task].
type httpTask struct {
	srv    *http.Server
	logger *log.Logger
}

func (h *httpTask) Name() string { return "http" }

func (h *httpTask) Run(ctx context.Context) error {
	return server.Serve(ctx, h.srv, h.logger)
}

// Serve wires the credential store, refresher, poller and HTTP server and runs them until
// interrupted or until the refresher gives up.
//
// The first refresh happens before anything starts, so a bad refresh token fails fast.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}
	if cmd.IsSet("cors") {
		config.Server.CORS = cmd.Bool("cors")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	sp := config.Credentials.Spotify
	store, err := credentials.NewStore(sp.RefreshToken)
	if err != nil {
		return err
	}

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
		RedirectURI:  sp.RedirectURI,
		Tokens:       store,
		HTTPClient:   r.httpClient,
		APIBaseURL:   r.spotifyAPI,
		TokenURL:     r.spotifyAuth,
	})
	if err != nil {
		return err
	}

	refresher, err := tasks.NewRefresher(tasks.RefresherOpts{
		Refresher:    spotify,
		Store:        store,
		Interval:     config.Refresh.Interval.Duration,
		Policy:       config.Refresh.Policy,
		RetryBackoff: config.Refresh.RetryBackoff.Duration,
		MaxBackoff:   config.Refresh.MaxBackoff.Duration,
		Logger:       r.logger,
	})
	if err != nil {
		return err
	}

	cache := status.NewCache(formatter.Sentinel)
	poller, err := tasks.NewPoller(tasks.PollerOpts{
		Source:   spotify,
		Cache:    cache,
		Interval: config.Poll.Interval.Duration,
		Timeout:  config.Poll.Timeout.Duration,
		Logger:   r.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("requesting initial access token")
	if err := refresher.Refresh(ctx); err != nil {
		return err
	}

	router := server.NewRouter(cache, refresher, config.Server.CORS, r.logger)
	srv := server.New(config.Server, router)

	go r.reportFailures(ctx, refresher.Failures())

	err = tasks.Supervise(ctx, r.logger, poller, refresher, &httpTask{srv: srv, logger: r.logger})
	if err != nil {
		return err
	}
	r.logger.Info("stopped")
	return nil
}

// reportFailures surfaces refresher failures to the operator on the command output.
func (r *Runner) reportFailures(ctx context.Context, failures <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-failures:
			r.writePlain("⚠ credential refresh failed: %v\n", err)
		}
	}
}
