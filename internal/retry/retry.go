// Package retry executes single outbound requests with bounded exponential
// backoff. Policies are data, not code, so call sites can carry different
// retry budgets and classification rules.
package retry

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/marcus/storeconf/internal/netmon"
	"github.com/marcus/storeconf/internal/remote"
)

// ErrOffline is reported when the network monitor says we are disconnected
// before a send is attempted. It is never a failure; callers route it to the
// persisted queue.
var ErrOffline = errors.New("offline")

// Policy describes one retry budget.
type Policy struct {
	BaseDelay  time.Duration
	MaxRetries int // retries after the initial attempt
	Retryable  func(error) bool
}

// WritePolicy is the default budget for mutations.
func WritePolicy() Policy {
	return Policy{BaseDelay: 300 * time.Millisecond, MaxRetries: 3, Retryable: DefaultRetryable}
}

// ReadPolicy is the smaller budget used for config loads.
func ReadPolicy() Policy {
	return Policy{BaseDelay: 300 * time.Millisecond, MaxRetries: 2, Retryable: DefaultRetryable}
}

// DefaultRetryable classifies an error. Client errors (4xx except 429) are
// terminal: the payload itself is invalid and retrying is futile. Rate
// limits, server errors, and transport failures (timeout, DNS, reset) are
// retryable.
func DefaultRetryable(err error) bool {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests {
			return true
		}
		return apiErr.Status >= 500
	}
	// No HTTP status means the request never completed: network trouble.
	return true
}

// Executor runs operations under a policy, checking connectivity first and
// keeping per-endpoint attempt counters for diagnostics.
type Executor struct {
	monitor *netmon.Monitor
	sleep   func(context.Context, time.Duration) error

	mu       sync.Mutex
	attempts map[string]int
}

// NewExecutor creates an executor bound to a network monitor. A nil monitor
// skips the offline check.
func NewExecutor(m *netmon.Monitor) *Executor {
	return &Executor{
		monitor:  m,
		sleep:    sleepCtx,
		attempts: make(map[string]int),
	}
}

// Do runs fn under the policy. The key ("METHOD:url") scopes the attempt
// counter. It returns nil on success, ErrOffline when disconnected before
// the first attempt, and otherwise the last error once it is terminal
// (either non-retryable or the retry budget is exhausted).
func (e *Executor) Do(ctx context.Context, p Policy, key string, fn func(context.Context) error) error {
	if e.monitor != nil && !e.monitor.Online() {
		return ErrOffline
	}

	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			e.reset(key)
			return nil
		}
		lastErr = err
		e.record(key)

		if !retryable(err) {
			return err
		}
		if attempt == p.MaxRetries {
			break
		}

		// attempt n waits baseDelay * 2^n before the next try
		delay := p.BaseDelay << attempt
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// Attempts returns the failure count recorded for an endpoint key since its
// last success.
func (e *Executor) Attempts(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts[key]
}

func (e *Executor) record(key string) {
	e.mu.Lock()
	e.attempts[key]++
	e.mu.Unlock()
}

func (e *Executor) reset(key string) {
	e.mu.Lock()
	delete(e.attempts, key)
	e.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
