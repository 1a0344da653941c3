package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/urfave/cli/v3"
)

// statusOutput is the --json shape of the status command.
type statusOutput struct {
	Status string               `json:"status"`
	Health *models.HealthReport `json:"health,omitempty"`
}

// Status queries a running service for its current status and health.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	api := r.apiClient(cmd.String("addr"))
	r.logger.Debug("querying service", "addr", api.BaseURL())

	text, err := api.NowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", api.BaseURL(), err)
	}

	health, err := api.Health(ctx)
	if err != nil {
		r.logger.Warn("health check failed", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(statusOutput{Status: text, Health: health}, cmd.Bool("pretty"))
	}

	switch {
	case formatter.IsError(text):
		r.writePlain("✗ %s\n", text)
	case text == formatter.Sentinel:
		r.writePlain("… waiting for the first poll\n")
	default:
		r.writePlain("♪ %s\n", text)
	}

	if health != nil {
		r.writePlain("Service: %s\n", health.Status)
		r.writePlain("Refresher: %s\n", health.Refresher)
		if health.LastError != "" {
			r.writePlain("Last error: %s\n", health.LastError)
		}
		if health.Sequence > 0 {
			r.writePlain("Last update: %s (#%d)\n", health.LastUpdate.Local().Format("15:04:05"), health.Sequence)
		}
	}
	return nil
}
