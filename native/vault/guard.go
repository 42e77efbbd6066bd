package vault

import "sync/atomic"

// reentrancyGuard rejects a second entry while a mutating operation is still
// in flight. Adapter calls cross into external code, so a buggy or malicious
// source calling back into the engine must fail instead of observing
// half-updated state.
type reentrancyGuard struct {
	entered atomic.Bool
}

func (g *reentrancyGuard) enter() error {
	if !g.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (g *reentrancyGuard) exit() {
	g.entered.Store(false)
}
