// Package tasks implements the long-running background work of the service.
//
// # Poller
//
// [Poller] queries a [services.PlaybackSource] on a fixed interval, formats the result with
// [formatter.Status] and publishes it to a [status.Cache]. Failed queries are published too, as
// "Error! <message>", and are replaced by the next successful poll. Each query is bounded by a
// timeout so an upstream that never answers cannot stall the loop.
//
// # Refresher
//
// [Refresher] renews the access token through a [services.TokenRefresher] on a fixed interval and
// installs it in the [credentials.Store]. What happens on failure is a [shared.RefreshPolicy]:
//   - fatal: Run returns the error, and the caller is expected to stop the service
//   - retry: attempts are repeated with exponential backoff, paced by a [rate.Limiter]
//   - degrade: the stale token stays in place and the next attempt waits a full interval
//
// Every failure is also reported on [Refresher.Failures] without blocking, and reflected in
// [Refresher.State] for the health endpoint.
//
// # Supervision
//
// [Supervise] runs tasks side by side and returns the first error that is not a context cancellation.
// The poller and refresher never talk to each other; they share only the credential store and the cache.
package tasks
