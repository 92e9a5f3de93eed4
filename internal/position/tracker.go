package position

import (
	"fmt"
	"sync"

	"solana-brain/internal/ids"
)

// Tracker owns the mint->active-position registry. Grounded directly on
// the teacher's PositionTracker: sync.RWMutex-guarded map, the same
// Has/Get/Add/CanOpen operation names, with MarkExited and All in place of
// the teacher's Remove and GetAll.
type Tracker struct {
	mu        sync.RWMutex
	positions map[ids.Mint]Position
	maxPos    int
}

// NewTracker constructs an empty tracker capped at maxPositions.
func NewTracker(maxPositions int) *Tracker {
	return &Tracker{
		positions: make(map[ids.Mint]Position),
		maxPos:    maxPositions,
	}
}

// Has reports whether mint already has an open position.
func (t *Tracker) Has(mint ids.Mint) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.positions[mint]
	return ok
}

// Get returns a copy of the position for mint, if any.
func (t *Tracker) Get(mint ids.Mint) (Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.positions[mint]
	return p, ok
}

// CanOpen reports whether a new position can be registered.
func (t *Tracker) CanOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions) < t.maxPos
}

// Add registers a new position. Fails if the mint is already tracked or the
// registry is at capacity (spec.md §4.10).
func (t *Tracker) Add(p Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.positions[p.Mint]; exists {
		return fmt.Errorf("position already open for mint %s", p.Mint.String())
	}
	if len(t.positions) >= t.maxPos {
		return fmt.Errorf("position registry at capacity (%d)", t.maxPos)
	}
	t.positions[p.Mint] = p
	return nil
}

// MarkExited removes mint from the registry, invoked after a sell emission
// succeeds (spec.md §4.10; SPEC_FULL.md Open Question 2: emission success,
// not on-chain confirmation).
func (t *Tracker) MarkExited(mint ids.Mint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.positions, mint)
}

// Update replaces the stored copy of a position, e.g. after recording an
// advisory-only tier crossing.
func (t *Tracker) Update(p Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.positions[p.Mint]; exists {
		t.positions[p.Mint] = p
	}
}

// All returns a snapshot (value copies) of every open position, for the
// exit monitor to iterate without holding the lock during evaluation.
func (t *Tracker) All() []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Position, 0, len(t.positions))
	for _, p := range t.positions {
		out = append(out, p)
	}
	return out
}

// Count returns the number of open positions.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}

// Cap returns the configured maximum number of concurrent positions, for
// callers (the sizer's utilization scaling) that need the registry's cap
// without mutating or locking against it.
func (t *Tracker) Cap() int {
	return t.maxPos
}
