package schedule

import "sync/atomic"

// Guard admits one holder at a time. A caller that finds it held is turned
// away, never queued.
type Guard struct {
	busy atomic.Bool
}

// TryEnter takes the guard if it is free.
func (g *Guard) TryEnter() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Leave releases the guard.
func (g *Guard) Leave() {
	g.busy.Store(false)
}

// Busy reports whether the guard is currently held.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
