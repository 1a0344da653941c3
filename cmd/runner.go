package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	api         *services.APIService
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	lookupEnv   func(string) (string, bool)
	openBrowser func(string) error
	spotifyAPI  string
	spotifyAuth string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config skips loading from disk when set.
	Config     *shared.Config
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// LookupEnv resolves environment overrides. Nil disables them.
	LookupEnv   func(string) (string, bool)
	OpenBrowser func(string) error
	// SpotifyAPIURL and SpotifyTokenURL replace the Spotify endpoints.
	SpotifyAPIURL   string
	SpotifyTokenURL string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = func(string) (string, bool) { return "", false }
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		api:         opts.API,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		lookupEnv:   opts.LookupEnv,
		openBrowser: opts.OpenBrowser,
		spotifyAPI:  opts.SpotifyAPIURL,
		spotifyAuth: opts.SpotifyTokenURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, statusCommand, watchCommand, authCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns a copy of the injected config, or reads path (defaults when it does not exist), then applies
// environment overrides and the log level.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	var config *shared.Config
	if r.config != nil {
		c := *r.config
		config = &c
	} else {
		loaded, err := shared.LoadConfig(path)
		switch {
		case err == nil:
			config = loaded
		case errors.Is(err, fs.ErrNotExist):
			r.logger.Debug("config file not found, using defaults", "path", path)
			config = shared.DefaultConfig()
		default:
			return nil, err
		}
	}

	if err := config.ApplyEnv(r.lookupEnv); err != nil {
		return nil, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return nil, err
	}
	return config, nil
}

func (r *Runner) apiClient(addr string) *services.APIService {
	if r.api != nil {
		return r.api
	}
	return services.NewAPIService(addr, r.httpClient)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
