package tag

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestGenerator_Sequential(t *testing.T) {
	g := NewGenerator()

	want := []uint64{1, 2, 3}
	for _, expected := range want {
		got, err := g.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if got != expected {
			t.Errorf("Next() = %d, want %d", got, expected)
		}
	}
}

func TestGenerator_ConcurrentDistinct(t *testing.T) {
	g := NewGenerator()

	const goroutines = 32
	const perGoroutine = 200

	results := make(chan uint64, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, err := g.Next()
				if err != nil {
					t.Errorf("Next() failed: %v", err)
					return
				}
				results <- id
			}
		}()
	}

	wg.Wait()
	close(results)

	seen := make(map[uint64]bool, goroutines*perGoroutine)
	for id := range results {
		if seen[id] {
			t.Fatalf("identifier %d issued more than once", id)
		}
		seen[id] = true
	}

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("issued %d identifiers, want %d", len(seen), goroutines*perGoroutine)
	}
}

func TestGenerator_Exhaustion(t *testing.T) {
	g := NewGeneratorAt(math.MaxUint64 - 1)

	// One identifier remains
	id, err := g.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if id != math.MaxUint64 {
		t.Errorf("Next() = %d, want %d", id, uint64(math.MaxUint64))
	}

	// Every further allocation must fail, never wrap
	for i := 0; i < 3; i++ {
		if _, err := g.Next(); !errors.Is(err, ErrExhausted) {
			t.Errorf("Next() error = %v, want ErrExhausted", err)
		}
	}
}

func TestGenerator_Last(t *testing.T) {
	g := NewGenerator()

	if g.Last() != 0 {
		t.Errorf("Last() = %d before any allocation, want 0", g.Last())
	}

	if _, err := g.Next(); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if _, err := g.Next(); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}

	if g.Last() != 2 {
		t.Errorf("Last() = %d, want 2", g.Last())
	}
}

func TestGenerator_InstanceAssigned(t *testing.T) {
	a := NewGenerator()
	b := NewGenerator()

	if a.Instance() == "" {
		t.Error("Instance() is empty")
	}
	if a.Instance() == b.Instance() {
		t.Error("two generators share the same instance ID")
	}
}
