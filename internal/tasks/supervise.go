package tasks

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Task is a long running unit of background work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervise runs tasks concurrently until ctx is done or one of them fails.
//
// A failing task cancels the rest; the first error that is not a context cancellation is returned.
func Supervise(ctx context.Context, logger *log.Logger, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		g.Go(func() error {
			err := task.Run(ctx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if logger != nil {
					logger.Debug("task stopped", "task", task.Name())
				}
				return nil
			}

			if logger != nil {
				logger.Error("task failed", "task", task.Name(), "error", err)
			}
			return err
		})
	}

	return g.Wait()
}
