package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Logger:    logger,
		LookupEnv: os.LookupEnv,
	})

	app := &cli.Command{
		Name:     "nowplaying",
		Usage:    "Serve the track currently playing on Spotify over HTTP",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrRefreshFailed) {
			logger.Error("credential refresh failed", "error", err)
			os.Exit(2)
		}
		logger.Fatalf("application error: %v", err)
	}
}
