package config

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// retryBreaker narrows the teacher's per-server circuit breaker down to a
// single-connection scope: once a run of connection attempts fails too often
// in a sliding window, the breaker trips open and RetryConnecting refuses
// further attempts for timeout, giving the server time to recover instead of
// being hammered by a Client retrying as fast as its own TCP stack allows.
type retryBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

func newRetryBreaker(maxRequests uint32, interval, timeout time.Duration) *retryBreaker {
	st := gobreaker.Settings{
		Name:        "rdb-connect",
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= maxRequests && counts.ConsecutiveFailures >= maxRequests
		},
	}
	return &retryBreaker{cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

// Allow reports whether another connection attempt may be made; it refuses
// only while the breaker is open. Whenever the breaker accepts the request,
// the outcome of the *previous* attempt (err, possibly nil from the caller's
// point of view meaning "the prior attempt hadn't happened yet") is recorded
// against it so the half-open probe mechanics stay accurate; a request the
// breaker rejects records nothing.
func (b *retryBreaker) Allow(err error) bool {
	_, execErr := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, err
	})
	return execErr == nil || execErr != gobreaker.ErrOpenState
}
