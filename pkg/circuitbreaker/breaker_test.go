package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "identity",
		FailureThreshold: 3,
		ResetTimeout:     10 * time.Second,
		HalfOpenMaxCalls: 1,
		Now:              clock.Now,
	})
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	cb.Failure()
	cb.Failure()
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s after 2 failures, want closed", cb.GetState())
	}

	cb.Failure()
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s after 3 failures, want open", cb.GetState())
	}
	if cb.Allow() {
		t.Error("Allow() = true while open")
	}
}

func TestSuccessResetsFailureCountWhenClosed(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Unix(0, 0)})

	cb.Failure()
	cb.Failure()
	cb.Success()
	cb.Failure()
	cb.Failure()

	if cb.GetState() != StateClosed {
		t.Errorf("state = %s, want closed (success should clear the count)", cb.GetState())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	for i := 0; i < 3; i++ {
		cb.Failure()
	}

	clock.t = clock.t.Add(11 * time.Second)

	if !cb.Allow() {
		t.Fatal("Allow() = false after reset timeout")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", cb.GetState())
	}
	if cb.Allow() {
		t.Error("second half-open call allowed, want limit of 1")
	}

	cb.Success()
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s after half-open success, want closed", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	for i := 0; i < 3; i++ {
		cb.Failure()
	}
	clock.t = clock.t.Add(11 * time.Second)
	cb.Allow()
	cb.Failure()

	if cb.GetState() != StateOpen {
		t.Errorf("state = %s, want open", cb.GetState())
	}
}

func TestExecuteAndReset(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Unix(0, 0)})
	boom := errors.New("boom")
	notCounted := errors.New("not found")
	isFailure := func(err error) bool { return err != notCounted }

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return notCounted }, isFailure)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s, ignored errors opened the breaker", cb.GetState())
	}

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return boom }, isFailure); err != boom {
			t.Fatalf("Execute() = %v, want boom", err)
		}
	}
	if err := cb.Execute(func() error { return nil }, nil); !errors.Is(err, ErrOpen) {
		t.Errorf("Execute() = %v, want ErrOpen", err)
	}

	cb.Reset()
	if cb.GetState() != StateClosed || !cb.Allow() {
		t.Error("Reset() did not close the breaker")
	}
	if cb.GetMetrics()["failure_count"] != int64(0) {
		t.Errorf("failure_count = %v after reset", cb.GetMetrics()["failure_count"])
	}
}
