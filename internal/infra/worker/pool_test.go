package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(3)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	inFlight, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestSubmitBlocksUntilWorkerFree(t *testing.T) {
	p := NewPool(1)
	p.Start(context.Background())
	defer p.Stop()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	if err := p.Submit(context.Background(), func(ctx context.Context) error {
		defer wg.Done()
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// The second submit cannot be handed over while the only worker is
	// busy; it must still succeed once the worker frees up.
	done := make(chan error, 1)
	go func() {
		done <- p.Submit(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			return nil
		})
	}()

	select {
	case err := <-done:
		t.Fatalf("second submit returned early: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("second submit: %v", err)
	}
	wg.Wait()
}

func TestSubmitRespectsContext(t *testing.T) {
	p := NewPool(1)
	p.Start(context.Background())
	defer p.Stop()

	blocker := make(chan struct{})
	defer close(blocker)
	p.Submit(context.Background(), func(ctx context.Context) error {
		<-blocker
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(ctx context.Context) error { return nil })
	if err == nil {
		t.Fatal("submit with dead context should fail")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	p := NewPool(2)
	p.Start(context.Background())
	p.Stop()

	if err := p.Submit(context.Background(), func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("submit after stop should fail")
	}
}

func TestSubmitNilTask(t *testing.T) {
	p := NewPool(1)
	p.Start(context.Background())
	defer p.Stop()

	if err := p.Submit(context.Background(), nil); err == nil {
		t.Fatal("nil task should be rejected")
	}
}
