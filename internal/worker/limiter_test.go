package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowsWithinBudget(t *testing.T) {
	limiter := NewLimiter(1000, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 10; i++ {
		if err := limiter.Wait(ctx, "https://example.com/page"); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
}

func TestLimiter_PerDomainIsolation(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Spend the only token for one domain.
	if err := limiter.Wait(ctx, "https://slow.example.com/"); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}

	// A different domain has its own bucket and must not block.
	if err := limiter.Wait(ctx, "https://other.example.org/"); err != nil {
		t.Errorf("Other domain blocked: %v", err)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	ctx := context.Background()
	if err := limiter.Wait(ctx, "https://example.com/"); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(cancelCtx, "https://example.com/"); err == nil {
		t.Error("Expected context error once the budget is spent")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.SetDomainRate("fast.example.com", 1000, 100)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 20; i++ {
		if err := limiter.Wait(ctx, "https://fast.example.com/"); err != nil {
			t.Fatalf("Wait %d on boosted domain failed: %v", i, err)
		}
	}
}

func TestLimiter_BadURL(t *testing.T) {
	limiter := NewLimiter(10, 1)

	if err := limiter.Wait(context.Background(), "://not-a-url"); err == nil {
		t.Error("Expected error for unparsable URL")
	}
}
