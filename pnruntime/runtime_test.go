package pnruntime

import (
	"context"
	"testing"
	"time"
)

func TestGoroutineSpawnRunsFn(t *testing.T) {
	done := make(chan struct{})
	Goroutine{}.Spawn(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spawned fn never ran")
	}
}

func TestGoroutineSpawnNilIsNoOp(t *testing.T) {
	Goroutine{}.Spawn(nil)
}

func TestSleepCompletes(t *testing.T) {
	if err := (Goroutine{}).Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
}

func TestSleepObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (Goroutine{}).Sleep(ctx, time.Minute) }()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep did not observe cancellation")
	}
}

func TestSleepZeroReturnsImmediately(t *testing.T) {
	if err := (Goroutine{}).Sleep(context.Background(), 0); err != nil {
		t.Fatalf("Sleep(0): %v", err)
	}
}
