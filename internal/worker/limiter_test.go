package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := limiter.Wait(ctx, "postgres"); err != nil {
			t.Fatalf("expected unlimited limiter to pass call %d, got %v", i, err)
		}
	}
}

func TestLimiter_PerDestination(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if err := limiter.Wait(context.Background(), "records"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "records"); err == nil {
		t.Error("expected wait to fail once the deadline cannot be met")
	}
	if err := limiter.Wait(ctx, "reports"); err != nil {
		t.Errorf("expected other destination to pass, got %v", err)
	}
}
