package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_EachIndexOnce(t *testing.T) {
	cfg := DefaultConfig()

	n := 500
	seen := make([]int32, n)

	For(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Errorf("Index %d visited %d times", i, c)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestFor_SmallChunk(t *testing.T) {
	// Test that small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestForErr(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	err := ForErr(1000, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counter != 1000 {
		t.Errorf("Expected 1000, got %d", counter)
	}
}

func TestForErr_ReturnsError(t *testing.T) {
	cfg := DefaultConfig()

	boom := errors.New("boom")
	err := ForErr(1000, func(i int) error {
		if i == 371 {
			return boom
		}
		return nil
	}, cfg)

	if !errors.Is(err, boom) {
		t.Errorf("Expected boom error, got %v", err)
	}
}

func TestForErr_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	boom := errors.New("boom")
	err := ForErr(10, func(i int) error {
		if i == 3 {
			return boom
		}
		return nil
	}, cfg)

	if !errors.Is(err, boom) {
		t.Errorf("Expected boom error, got %v", err)
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
