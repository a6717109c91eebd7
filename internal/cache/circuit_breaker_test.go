package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.Now
	return cb, clock
}

func failing() error { return fmt.Errorf("operation failed") }

func TestCircuitBreakerBasicFlow(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Second, HalfOpenMaxCalls: 2})

	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected initial state to be Closed, got %v", cb.State())
	}

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected state to remain Closed after success, got %v", cb.State())
	}
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.cfg != DefaultCircuitBreakerConfig() {
		t.Errorf("Expected defaults for zero config, got %+v", cb.cfg)
	}
}

func TestCircuitBreakerFailureTransition(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Second, HalfOpenMaxCalls: 2})

	if err := cb.Execute(failing); err == nil {
		t.Error("Expected error, got nil")
	}
	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected state to be Closed after first failure, got %v", cb.State())
	}

	if err := cb.Execute(failing); err == nil {
		t.Error("Expected error, got nil")
	}
	if cb.State() != CircuitBreakerOpen {
		t.Errorf("Expected state to be Open after reaching failure threshold, got %v", cb.State())
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Second, HalfOpenMaxCalls: 1})

	_ = cb.Execute(failing)
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(failing)

	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected non-consecutive failures to keep the breaker Closed, got %v", cb.State())
	}
}

func TestCircuitBreakerOpenState(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 2})

	_ = cb.Execute(failing)

	err := cb.Execute(func() error {
		t.Error("Operation should not be executed when circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected ErrCircuitBreakerOpen, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenCloses(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 2})

	_ = cb.Execute(failing)
	clock.Advance(time.Second)

	executed := false
	if err := cb.Execute(func() error { executed = true; return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !executed {
		t.Error("Expected operation to be executed in half-open state")
	}
	if cb.State() != CircuitBreakerHalfOpen {
		t.Errorf("Expected HalfOpen after one success, got %v", cb.State())
	}

	_ = cb.Execute(func() error { return nil })
	if cb.State() != CircuitBreakerClosed {
		t.Errorf("Expected Closed after HalfOpenMaxCalls successes, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 2})

	_ = cb.Execute(failing)
	clock.Advance(time.Second)
	_ = cb.Execute(failing)

	if cb.State() != CircuitBreakerOpen {
		t.Errorf("Expected Open after half-open failure, got %v", cb.State())
	}

	clock.Advance(500 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected the timeout to restart on reopen, got %v", err)
	}
}

func TestCircuitBreakerConcurrency(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 5, Timeout: 100 * time.Millisecond, HalfOpenMaxCalls: 3})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = cb.Execute(func() error {
					if (id+j)%3 == 0 {
						return fmt.Errorf("failure %d-%d", id, j)
					}
					return nil
				})
			}
		}(i)
	}
	wg.Wait()

	err := cb.Execute(func() error { return nil })
	if err != nil && !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Unexpected error after concurrent operations: %v", err)
	}
	if cb.Stats()["state"] == "" {
		t.Error("Expected stats to report a state")
	}
}
