package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_MinimumGap(t *testing.T) {
	l := NewLimiter()
	l.SetInterval("providerw", 50*time.Millisecond, 0)

	ctx := context.Background()
	start := time.Now()
	if err := l.Wait(ctx, "providerw"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	first := time.Since(start)
	if first > 10*time.Millisecond {
		t.Fatalf("first wait should be near-immediate, got %v", first)
	}

	second := time.Now()
	if err := l.Wait(ctx, "providerw"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	gap := time.Since(second)
	if gap < 40*time.Millisecond {
		t.Fatalf("expected gap >= interval(1-jitter), got %v", gap)
	}
}

func TestLimiter_IndependentClasses(t *testing.T) {
	l := NewLimiter()
	l.SetInterval("a", 100*time.Millisecond, 0)
	l.SetInterval("b", 0, 0)

	ctx := context.Background()
	_ = l.Wait(ctx, "a")

	start := time.Now()
	if err := l.Wait(ctx, "b"); err != nil {
		t.Fatalf("class b wait: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatalf("class b should be unaffected by class a's pacing")
	}
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := NewLimiter()
	l.SetInterval("slow", time.Second, 0)
	_ = l.Wait(context.Background(), "slow")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "slow"); err == nil {
		t.Fatal("expected context deadline error")
	}
}
