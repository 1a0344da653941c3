// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
		Sources: cli.EnvVars("NOWPLAYING_CONFIG"),
	}
}

func addrFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "addr",
		Aliases: []string{"a"},
		Usage:   "Base URL of a running nowplaying service",
		Value:   services.DefaultBaseURL,
		Sources: cli.EnvVars("NOWPLAYING_URL"),
	}
}

// serveCommand runs the service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Poll Spotify and serve the current track at " + services.NowPlayingPath,
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config and " + shared.EnvPort + ")",
			},
			&cli.BoolFlag{
				Name:  "cors",
				Usage: "Send Access-Control-Allow-Origin: * (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// statusCommand queries a running service
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the status and health of a running service",
		Flags: []cli.Flag{
			addrFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Status,
	}
}

// watchCommand returns the top-level TUI command.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"tui", "ui"},
		Usage:   "Live terminal view of a running service",
		Flags: []cli.Flag{
			addrFlag(),
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "How often to query the service",
				Value:   ui.DefaultInterval,
			},
		},
		Action: r.Watch,
	}
}

// authCommand handles the out-of-band authorization code flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and print a refresh token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write the refresh token into the config file",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the callback",
				Value: authTimeout,
			},
		},
		Action: r.Auth,
	}
}

// configCommand handles configuration file operations
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a starter configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration (file, then environment)",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.ConfigShow,
			},
		},
	}
}
