package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcus/storeconf/internal/netmon"
	"github.com/marcus/storeconf/internal/remote"
)

// newTestExecutor swaps the real sleep for one that records requested delays.
func newTestExecutor(m *netmon.Monitor) (*Executor, *[]time.Duration) {
	e := NewExecutor(m)
	delays := &[]time.Duration{}
	e.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return e, delays
}

func TestBackoffSchedule(t *testing.T) {
	e, delays := newTestExecutor(nil)
	p := Policy{BaseDelay: 300 * time.Millisecond, MaxRetries: 2, Retryable: DefaultRetryable}

	calls := 0
	err := e.Do(context.Background(), p, "PUT:/config", func(context.Context) error {
		calls++
		return &remote.APIError{Status: 503}
	})
	if err == nil {
		t.Fatal("expected terminal error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
	want := []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}
	if len(*delays) != 2 || (*delays)[0] != want[0] || (*delays)[1] != want[1] {
		t.Errorf("delays = %v, want %v", *delays, want)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	e, delays := newTestExecutor(nil)
	calls := 0
	err := e.Do(context.Background(), WritePolicy(), "PUT:/config", func(context.Context) error {
		calls++
		return &remote.APIError{Status: 400, Message: "bad payload"}
	})
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1", calls)
	}
	if len(*delays) != 0 {
		t.Errorf("slept %v, want no backoff", *delays)
	}
}

func TestRateLimitedIsRetryable(t *testing.T) {
	e, _ := newTestExecutor(nil)
	calls := 0
	err := e.Do(context.Background(), Policy{BaseDelay: time.Millisecond, MaxRetries: 2, Retryable: DefaultRetryable},
		"GET:/config", func(context.Context) error {
			calls++
			if calls < 3 {
				return &remote.APIError{Status: 429}
			}
			return nil
		})
	if err != nil {
		t.Errorf("err = %v, want success after 429s", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d", calls)
	}
}

func TestOfflineShortCircuits(t *testing.T) {
	m := netmon.New()
	m.SetOnline(false)
	e, _ := newTestExecutor(m)

	calls := 0
	err := e.Do(context.Background(), WritePolicy(), "PUT:/config", func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrOffline) {
		t.Errorf("err = %v, want ErrOffline", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, offline must not attempt the send", calls)
	}
}

func TestAttemptCounterResetsOnSuccess(t *testing.T) {
	e, _ := newTestExecutor(nil)
	p := Policy{BaseDelay: time.Millisecond, MaxRetries: 3, Retryable: DefaultRetryable}

	fails := 2
	err := e.Do(context.Background(), p, "PUT:/config/sections/landing", func(context.Context) error {
		if fails > 0 {
			fails--
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got := e.Attempts("PUT:/config/sections/landing"); got != 0 {
		t.Errorf("attempts after success = %d, want 0", got)
	}
}

func TestAttemptCounterAccumulatesOnFailure(t *testing.T) {
	e, _ := newTestExecutor(nil)
	p := Policy{BaseDelay: time.Millisecond, MaxRetries: 1, Retryable: DefaultRetryable}

	_ = e.Do(context.Background(), p, "PUT:/x", func(context.Context) error {
		return errors.New("timeout")
	})
	if got := e.Attempts("PUT:/x"); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	e := NewExecutor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{BaseDelay: time.Minute, MaxRetries: 3, Retryable: DefaultRetryable}
	err := e.Do(ctx, p, "PUT:/x", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
