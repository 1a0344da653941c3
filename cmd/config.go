package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to the config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\nFill in [credentials.spotify], then run `nowplaying auth --save`.\n", path)
}

// ConfigShow prints the effective configuration with secrets redacted.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	shown := *config
	shown.Credentials.Spotify.ClientSecret = redact(config.Credentials.Spotify.ClientSecret)
	shown.Credentials.Spotify.RefreshToken = redact(config.Credentials.Spotify.RefreshToken)

	r.writePlainHeader("Effective configuration")
	if err := toml.NewEncoder(r.output).Encode(shown); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		r.writePlainln("✗ %v", err)
	} else {
		r.writePlainln("✓ Ready to serve")
	}
	return nil
}

func redact(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
