package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/credentials"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// DefaultRefreshInterval renews ahead of Spotify's one hour access token lifetime.
	DefaultRefreshInterval = 58 * time.Minute
	DefaultRetryBackoff    = 5 * time.Second
	DefaultMaxBackoff      = 5 * time.Minute

	refreshTimeout = 30 * time.Second
	failureBuffer  = 8
)

// RefresherOpts contains configuration options for creating a [Refresher].
type RefresherOpts struct {
	Refresher    services.TokenRefresher
	Store        *credentials.Store
	Interval     time.Duration
	Policy       shared.RefreshPolicy
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
	Logger       *log.Logger
}

// RefresherState summarizes refresh outcomes for health reporting.
type RefresherState struct {
	Healthy     bool
	LastRefresh time.Time // zero until the first success
	LastError   error
	Failures    int // consecutive failures
}

// Refresher keeps the credential store's access token fresh.
type Refresher struct {
	refresher    services.TokenRefresher
	store        *credentials.Store
	interval     time.Duration
	policy       shared.RefreshPolicy
	retryBackoff time.Duration
	maxBackoff   time.Duration
	logger       *log.Logger
	failures     chan error

	mu    sync.Mutex
	state RefresherState
}

// NewRefresher creates a new Refresher with the provided configuration
func NewRefresher(opts RefresherOpts) (*Refresher, error) {
	if opts.Refresher == nil {
		return nil, fmt.Errorf("%w: refresher needs a token refresher", shared.ErrInvalidArgument)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: refresher needs a credential store", shared.ErrInvalidArgument)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	switch opts.Policy {
	case "":
		opts.Policy = shared.PolicyFatal
	case shared.PolicyFatal, shared.PolicyRetry, shared.PolicyDegrade:
	default:
		return nil, fmt.Errorf("%w: unknown refresh policy %q", shared.ErrInvalidArgument, opts.Policy)
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.MaxBackoff < opts.RetryBackoff {
		opts.MaxBackoff = max(DefaultMaxBackoff, opts.RetryBackoff)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Refresher{
		refresher:    opts.Refresher,
		store:        opts.Store,
		interval:     opts.Interval,
		policy:       opts.Policy,
		retryBackoff: opts.RetryBackoff,
		maxBackoff:   opts.MaxBackoff,
		logger:       shared.WithLogger(opts.Logger, "task", "refresher"),
		failures:     make(chan error, failureBuffer),
		state:        RefresherState{Healthy: true},
	}, nil
}

func (r *Refresher) Name() string { return "refresher" }

// Failures reports every failed refresh attempt. Sends never block, so a slow reader misses failures.
func (r *Refresher) Failures() <-chan error {
	return r.failures
}

// State returns a copy of the latest refresh outcome.
func (r *Refresher) State() RefresherState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Refresh performs a single refresh attempt and installs the result. Errors wrap [shared.ErrRefreshFailed].
func (r *Refresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	token, err := r.refresher.Refresh(ctx, r.store.Current())
	if err == nil {
		err = r.store.Replace(token)
	}
	if err != nil {
		if !errors.Is(err, shared.ErrRefreshFailed) {
			err = fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}
		r.recordFailure(err)
		return err
	}

	r.mu.Lock()
	r.state = RefresherState{Healthy: true, LastRefresh: time.Now()}
	r.mu.Unlock()

	r.logger.Info("access token refreshed", "expiry", token.Expiry)
	return nil
}

func (r *Refresher) recordFailure(err error) {
	r.mu.Lock()
	r.state.Healthy = false
	r.state.LastError = err
	r.state.Failures++
	failures := r.state.Failures
	r.mu.Unlock()

	r.logger.Error("credential refresh failed", "policy", r.policy, "consecutive", failures, "error", err)

	select {
	case r.failures <- err:
	default:
	}
}

// Run refreshes once per interval until ctx is done. The first refresh happens after one interval;
// callers that start from a bare refresh token call [Refresher.Refresh] first.
//
// Under the fatal policy the first failure is returned. Otherwise Run only returns on cancellation.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("starting", "interval", r.interval, "policy", r.policy)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		err := r.Refresh(ctx)
		if err == nil || ctx.Err() != nil {
			continue
		}

		switch r.policy {
		case shared.PolicyFatal:
			return err
		case shared.PolicyRetry:
			if err := r.retry(ctx); err != nil {
				return ctx.Err()
			}
			ticker.Reset(r.interval)
		case shared.PolicyDegrade:
			r.logger.Warn("serving with stale credentials until next refresh", "next", r.interval)
		}
	}
}

// retry repeats the refresh with exponential backoff until it succeeds or ctx is done.
func (r *Refresher) retry(ctx context.Context) error {
	backoff := r.retryBackoff
	limiter := rate.NewLimiter(rate.Every(backoff), 1)
	limiter.Allow() // the failed attempt spent the burst

	for {
		r.logger.Warn("retrying credential refresh", "backoff", backoff)
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := r.Refresh(ctx); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff = min(backoff*2, r.maxBackoff)
		limiter.SetLimit(rate.Every(backoff))
	}
}
