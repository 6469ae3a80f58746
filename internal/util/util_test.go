package util

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("fn called %d times, want 3", attempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 3, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})
	if err == nil {
		t.Fatal("Retry should return the last error when all attempts fail")
	}
	if attempts != 3 {
		t.Errorf("fn called %d times, want 3", attempts)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRateLimiterPacing(t *testing.T) {
	// 6000/min = one grant per 10ms; three grants need ~20ms beyond the
	// immediate first.
	rl := NewRateLimiter(6000)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("three grants took %v, want at least ~20ms of pacing", elapsed)
	}
}

func TestRateLimiterCancelled(t *testing.T) {
	rl := NewRateLimiter(1) // one per minute
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "text")

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Error("info record emitted at warn level")
	}
	if !bytes.Contains([]byte(out), []byte("visible")) {
		t.Error("warn record missing")
	}
}
