package tag

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrExhausted is returned by Next once the identifier sequence is spent.
// The generator never silently wraps back to reissued values.
var ErrExhausted = errors.New("identifier sequence exhausted")

// Generator issues unique, monotonically increasing request identifiers.
// Safe for concurrent use from any number of goroutines; Next never blocks.
type Generator struct {
	counter  uint64
	instance string
}

// NewGenerator creates a generator starting at zero.
// The first call to Next returns 1.
func NewGenerator() *Generator {
	return NewGeneratorAt(0)
}

// NewGeneratorAt creates a generator whose counter starts at the given value.
// Used by tests to exercise the exhaustion path.
func NewGeneratorAt(start uint64) *Generator {
	return &Generator{
		counter:  start,
		instance: uuid.New().String(),
	}
}

// Next allocates the next identifier. Values are pairwise distinct across
// concurrent callers. Returns ErrExhausted when the counter range is spent.
func (g *Generator) Next() (uint64, error) {
	for {
		current := atomic.LoadUint64(&g.counter)
		if current == math.MaxUint64 {
			return 0, ErrExhausted
		}
		if atomic.CompareAndSwapUint64(&g.counter, current, current+1) {
			return current + 1, nil
		}
	}
}

// Last returns the most recently issued identifier, or zero if none
// has been issued yet.
func (g *Generator) Last() uint64 {
	return atomic.LoadUint64(&g.counter)
}

// Instance returns the per-process instance ID assigned at construction.
// Identifier sequences are only unique within one process lifetime; the
// instance ID distinguishes sequences across restarts.
func (g *Generator) Instance() string {
	return g.instance
}
