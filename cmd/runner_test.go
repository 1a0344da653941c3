package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/status"
	tu "github.com/desertthunder/nowplaying/internal/testing"
	"github.com/urfave/cli/v3"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a running serve command.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func run(ctx context.Context, r *Runner, args ...string) error {
	app := &cli.Command{Name: "nowplaying", Commands: r.register()}
	return app.Run(ctx, append([]string{"nowplaying"}, args...))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "client"
	config.Credentials.Spotify.ClientSecret = "secret"
	config.Credentials.Spotify.RefreshToken = "refresh"
	config.Server.Host = "127.0.0.1"
	config.Server.Port = freePort(t)
	config.Poll.Interval = shared.Duration{Duration: time.Second}
	config.Poll.Timeout = shared.Duration{Duration: 500 * time.Millisecond}
	return config
}

// fakeSpotify serves the token and currently-playing endpoints.
func fakeSpotify(t *testing.T, tokenStatus int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/token":
			r.ParseForm()
			w.WriteHeader(tokenStatus)
			if tokenStatus != http.StatusOK {
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			if r.Form.Get("grant_type") == "authorization_code" {
				w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600,"refresh_token":"new-refresh"}`))
				return
			}
			w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
		case strings.HasSuffix(r.URL.Path, "/me/player/currently-playing"):
			if r.Header.Get("Authorization") != "Bearer access" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"timestamp":1700000000000,"is_playing":true,"item":{"name":"Song","artists":[{"name":"Alice"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("", nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.apiClient("http://elsewhere") != api {
				t.Error("expected injected api client to win over --addr")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if _, ok := runner.lookupEnv(shared.EnvClientID); ok {
				t.Error("expected environment lookups to be disabled")
			}
			if got := runner.apiClient("http://example:1").BaseURL(); got != "http://example:1" {
				t.Errorf("api base URL = %q", got)
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			config, err := runner.loadConfig(filepath.Join(t.TempDir(), "none.toml"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Server.Port != 8000 {
				t.Errorf("port = %d, want default", config.Server.Port)
			}
		})

		t.Run("applies environment", func(t *testing.T) {
			env := map[string]string{shared.EnvClientID: "from-env", shared.EnvPort: "9001"}
			runner := NewRunner(RunnerOpts{
				Logger: shared.NewLogger(io.Discard),
				LookupEnv: func(k string) (string, bool) {
					v, ok := env[k]
					return v, ok
				},
			})
			config, err := runner.loadConfig(filepath.Join(t.TempDir(), "none.toml"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Credentials.Spotify.ClientID != "from-env" || config.Server.Port != 9001 {
				t.Errorf("env not applied: %+v", config)
			}
		})

		t.Run("leaves the injected config untouched", func(t *testing.T) {
			injected := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{
				Config: injected,
				Logger: shared.NewLogger(io.Discard),
				LookupEnv: func(k string) (string, bool) {
					if k == shared.EnvPort {
						return "9002", true
					}
					return "", false
				},
			})
			config, err := runner.loadConfig("")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config == injected {
				t.Fatal("expected a copy of the injected config")
			}
			if config.Server.Port != 9002 {
				t.Errorf("port = %d, want 9002", config.Server.Port)
			}
			if injected.Server.Port != 8000 {
				t.Errorf("injected port changed to %d", injected.Server.Port)
			}
		})

		t.Run("invalid file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			os.WriteFile(path, []byte("[server\nport ="), 0600)

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
			if _, err := runner.loadConfig(path); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		output.Reset()
		runner.writePlainln("done")
		if output.String() != "\ndone\n" {
			t.Errorf("got %q", output.String())
		}

		if err := NewRunner(RunnerOpts{Output: &tu.FWriter{}}).writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestStatusCommand(t *testing.T) {
	cache := status.NewCache(formatter.Sentinel)
	cache.Publish("Alice - Song")
	ts := httptest.NewServer(server.NewRouter(cache, nil, false, shared.NewLogger(io.Discard)))
	defer ts.Close()

	t.Run("plain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := run(context.Background(), runner, "status", "--addr", ts.URL); err != nil {
			t.Fatalf("status error = %v", err)
		}
		for _, want := range []string{"♪ Alice - Song", "Service: ok", "Refresher: ok", "(#1)"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("output missing %q:\n%s", want, output.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := run(context.Background(), runner, "status", "--addr", ts.URL, "--json", "--pretty=false"); err != nil {
			t.Fatalf("status error = %v", err)
		}
		if !strings.HasPrefix(output.String(), `{"status":"Alice - Song","health":{"status":"ok"`) {
			t.Errorf("unexpected output %s", output.String())
		}
	})

	t.Run("service down", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		err := run(context.Background(), runner, "status", "--addr", "http://127.0.0.1:1")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("init", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		if err := run(context.Background(), runner, "config", "init", "--config", path); err != nil {
			t.Fatalf("init error = %v", err)
		}
		if _, err := shared.LoadConfig(path); err != nil {
			t.Fatalf("written config does not load: %v", err)
		}

		err := run(context.Background(), runner, "config", "init", "--config", path)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument on existing file, got %v", err)
		}

		if err := run(context.Background(), runner, "config", "init", "--config", path, "--force"); err != nil {
			t.Errorf("init --force error = %v", err)
		}
	})

	t.Run("show redacts secrets", func(t *testing.T) {
		output := &bytes.Buffer{}
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientSecret = "supersecret"
		config.Credentials.Spotify.RefreshToken = "refreshtoken"
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := run(context.Background(), runner, "config", "show"); err != nil {
			t.Fatalf("show error = %v", err)
		}
		out := output.String()
		if strings.Contains(out, "supersecret") || strings.Contains(out, "refreshtoken") {
			t.Errorf("secrets leaked:\n%s", out)
		}
		if !strings.Contains(out, "****cret") {
			t.Errorf("expected redacted secret:\n%s", out)
		}
	})

	t.Run("redact", func(t *testing.T) {
		tests := map[string]string{"": "", "abc": "****", "abcdefgh": "****efgh"}
		for in, want := range tests {
			if got := redact(in); got != want {
				t.Errorf("redact(%q) = %q, want %q", in, got, want)
			}
		}
	})
}

func TestServeCommand(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: shared.NewLogger(io.Discard)})
		config := runner.config
		config.Credentials.Spotify.ClientID = ""

		err := run(context.Background(), runner, "serve")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("defaults with only a refresh token", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(io.Discard),
			LookupEnv: func(k string) (string, bool) {
				if k == shared.EnvRefreshToken {
					return "rt", true
				}
				return "", false
			},
		})

		err := run(context.Background(), runner, "serve", "--config", filepath.Join(t.TempDir(), "none.toml"))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("startup refresh failure", func(t *testing.T) {
		spotify := fakeSpotify(t, http.StatusBadRequest)
		runner := NewRunner(RunnerOpts{
			Config:          testConfig(t),
			Logger:          shared.NewLogger(io.Discard),
			Output:          &syncBuffer{},
			SpotifyTokenURL: spotify.URL + "/api/token",
			SpotifyAPIURL:   spotify.URL + "/v1/",
		})

		err := run(context.Background(), runner, "serve")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
	})

	t.Run("serves the current track", func(t *testing.T) {
		spotify := fakeSpotify(t, http.StatusOK)
		config := testConfig(t)
		runner := NewRunner(RunnerOpts{
			Config:          config,
			Logger:          shared.NewLogger(io.Discard),
			Output:          &syncBuffer{},
			SpotifyTokenURL: spotify.URL + "/api/token",
			SpotifyAPIURL:   spotify.URL + "/v1/",
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, runner, "serve", "--cors") }()

		client := services.NewAPIService("http://"+config.Server.Addr(), nil)
		var got string
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if text, err := client.NowPlaying(ctx); err == nil {
				got = text
				if got == "Alice - Song" {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
		}
		if got != "Alice - Song" {
			t.Errorf("status = %q, want %q", got, "Alice - Song")
		}

		resp, err := http.Get("http://" + config.Server.Addr() + services.NowPlayingPath)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected --cors to enable the CORS header")
		}

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve returned %v after shutdown", err)
			}
		case <-time.After(15 * time.Second):
			t.Fatal("serve did not stop")
		}
	})
}

func TestAuthCommand(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = ""
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		err := run(context.Background(), runner, "auth")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("prints and saves the refresh token", func(t *testing.T) {
		spotify := fakeSpotify(t, http.StatusOK)
		config := testConfig(t)
		config.Credentials.Spotify.RefreshToken = ""
		config.Credentials.Spotify.RedirectURI = "http://127.0.0.1:" + strconv.Itoa(freePort(t)) + "/callback"
		path := filepath.Join(t.TempDir(), "config.toml")

		browser := func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			callback := config.Credentials.Spotify.RedirectURI + "?code=abc&state=" + url.QueryEscape(u.Query().Get("state"))
			go func() {
				for range 100 {
					resp, err := http.Get(callback)
					if err == nil {
						resp.Body.Close()
						return
					}
					time.Sleep(20 * time.Millisecond)
				}
			}()
			return nil
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:          config,
			Logger:          shared.NewLogger(io.Discard),
			Output:          output,
			OpenBrowser:     browser,
			SpotifyTokenURL: spotify.URL + "/api/token",
		})

		if err := run(context.Background(), runner, "auth", "--config", path, "--save", "--timeout", "10s"); err != nil {
			t.Fatalf("auth error = %v", err)
		}
		if !strings.Contains(output.String(), "new-refresh") {
			t.Errorf("refresh token not printed:\n%s", output.String())
		}

		saved, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if saved.Credentials.Spotify.RefreshToken != "new-refresh" {
			t.Errorf("saved refresh token = %q", saved.Credentials.Spotify.RefreshToken)
		}
		if saved.Credentials.Spotify.ClientSecret == "secret" {
			t.Error("client secret should not be written from memory")
		}
	})
}
