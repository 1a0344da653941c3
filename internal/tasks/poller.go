package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/status"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultPollTimeout  = 5 * time.Second
)

// PollerOpts contains configuration options for creating a [Poller].
type PollerOpts struct {
	Source   services.PlaybackSource
	Cache    *status.Cache
	Interval time.Duration
	Timeout  time.Duration // bound on one upstream query, capped at Interval
	Logger   *log.Logger
}

// Poller publishes the formatted playback status to the cache once per interval.
type Poller struct {
	source   services.PlaybackSource
	cache    *status.Cache
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
}

// NewPoller creates a new Poller with the provided configuration
func NewPoller(opts PollerOpts) (*Poller, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: poller needs a playback source", shared.ErrInvalidArgument)
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("%w: poller needs a status cache", shared.ErrInvalidArgument)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPollTimeout
	}
	if opts.Timeout > opts.Interval {
		opts.Timeout = opts.Interval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Poller{
		source:   opts.Source,
		cache:    opts.Cache,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   shared.WithLogger(opts.Logger, "task", "poller"),
	}, nil
}

func (p *Poller) Name() string { return "poller" }

// Poll runs a single cycle and returns the text it published.
//
// When ctx itself is done the result is not published, since it reflects shutdown rather than the upstream.
func (p *Poller) Poll(ctx context.Context) string {
	cycle := shared.GenerateID()
	started := time.Now()

	playback, err := p.query(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return p.cache.Current()
		}
		playback = models.QueryFailed(err)
		p.logger.Warn("playback query failed", "cycle", cycle, "error", err)
	}

	text := formatter.Status(playback)
	p.cache.Publish(text)

	p.logger.Debug("published status", "cycle", cycle, "kind", playback.Kind, "status", text, "took", time.Since(started))
	return text
}

type queryResult struct {
	playback models.Playback
	err      error
}

// query calls the source with a deadline. A source that ignores its context is abandoned once the
// deadline passes; its goroutine exits whenever the call finally returns.
func (p *Poller) query(ctx context.Context) (models.Playback, error) {
	qctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan queryResult, 1)
	go func() {
		playback, err := p.source.CurrentlyPlaying(qctx)
		done <- queryResult{playback, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(qctx.Err(), context.DeadlineExceeded) {
			return models.Playback{}, p.timeoutErr()
		}
		return r.playback, r.err
	case <-qctx.Done():
		if errors.Is(qctx.Err(), context.DeadlineExceeded) {
			return models.Playback{}, p.timeoutErr()
		}
		return models.Playback{}, qctx.Err()
	}
}

func (p *Poller) timeoutErr() error {
	return fmt.Errorf("%w: no response from source within %v", shared.ErrTimeout, p.timeout)
}

// Run polls immediately and then once per interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("starting", "interval", p.interval, "timeout", p.timeout)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
