package parallel_test

import (
	"sync/atomic"
	"testing"

	"github.com/trace-ml/trace/internal/parallel"
)

// chunked forces the parallel path even for tiny inputs.
func chunked() parallel.Config {
	return parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
}

func TestFor_CoversRange(t *testing.T) {
	const n = 1000
	var hits [n]int32

	parallel.For(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, chunked())

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	parallel.For(5, func(i int) {
		order = append(order, i)
	}, parallel.Config{Enabled: false})

	for i, v := range order {
		if v != i {
			t.Fatalf("sequential order broken at %d: got %d", i, v)
		}
	}
	if len(order) != 5 {
		t.Fatalf("visited %d indices, want 5", len(order))
	}
}

func TestFor_SmallInputStaysSequential(t *testing.T) {
	// Below MinChunkSize the loop runs inline even when enabled.
	var count int
	parallel.For(10, func(i int) {
		count++
	}, parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 100})

	if count != 10 {
		t.Fatalf("count = %d, want 10", count)
	}
}

func TestRanges_CoversRange(t *testing.T) {
	const n = 997 // prime, so chunks cannot divide evenly
	var hits [n]int32

	parallel.Ranges(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	}, chunked())

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestRanges_Disabled(t *testing.T) {
	var calls int
	var gotStart, gotEnd int
	parallel.Ranges(42, func(start, end int) {
		calls++
		gotStart, gotEnd = start, end
	}, parallel.Config{Enabled: false})

	if calls != 1 || gotStart != 0 || gotEnd != 42 {
		t.Fatalf("disabled Ranges: %d calls over [%d, %d), want 1 call over [0, 42)", calls, gotStart, gotEnd)
	}
}

func TestFor_Zero(t *testing.T) {
	parallel.For(0, func(i int) {
		t.Fatal("callback must not run for n = 0")
	}, chunked())
}

func TestDefaultConfig(t *testing.T) {
	cfg := parallel.DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want >= 1", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 1 {
		t.Errorf("MinChunkSize = %d, want >= 1", cfg.MinChunkSize)
	}
}
