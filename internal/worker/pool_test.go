package worker

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool_ZeroWorkers(t *testing.T) {
	pool := NewPool(0)
	if pool.Workers() != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), pool.Workers())
	}
}

func TestPool_SubmitAndWait(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	defer pool.Close()

	var counter int
	var mu sync.Mutex
	for i := 0; i < 25; i++ {
		if err := pool.Submit(func() {
			time.Sleep(time.Millisecond)
			mu.Lock()
			counter++
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Unexpected submit error: %v", err)
		}
	}
	pool.Wait()

	if counter != 25 {
		t.Errorf("Expected counter to be 25, got %d", counter)
	}
	stats := pool.Stats()
	if stats.TotalJobs != 25 || stats.CompletedJobs != 25 || stats.ActiveWorkers != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestPool_RunsConcurrently(t *testing.T) {
	pool := NewPool(4)
	pool.Start()
	defer pool.Close()

	var running, peak atomic.Int64
	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
		})
	}
	pool.Wait()

	if peak.Load() < 2 {
		t.Errorf("Expected jobs to overlap, peak concurrency was %d", peak.Load())
	}
	if peak.Load() > 4 {
		t.Errorf("Expected at most 4 concurrent jobs, got %d", peak.Load())
	}
}

func TestPool_StartOnce(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Start()
	defer pool.Close()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Job did not run")
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(1)
	pool.Start()
	pool.Close()
	pool.Close()

	if err := pool.Submit(func() {}); err != ErrPoolClosed {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}
