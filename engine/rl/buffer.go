// Package rl implements the experience buffer (C7) and RL agent (C8): a
// fixed-capacity transition ring buffer feeding an actor-critic policy and
// value network pair.
package rl

import (
	"math/rand"

	"github.com/vectorstream/patternengine/engine"
)

// BufferCapacity is the fixed ring-buffer capacity for Transitions.
const BufferCapacity = 10000

// Buffer is a fixed-capacity ring buffer of Transitions. Push overwrites
// the oldest slot once full; Sample draws uniformly at random with
// replacement. Not safe for concurrent use without external
// synchronization — callers needing that guarantee wrap it the same way
// engine.Orchestrator guards its own shared state (see spec.md section 5).
type Buffer struct {
	slots []engine.Transition
	next  int
	full  bool
}

// NewBuffer constructs an empty Buffer with BufferCapacity capacity.
func NewBuffer() *Buffer {
	return &Buffer{slots: make([]engine.Transition, BufferCapacity)}
}

// Push appends t, overwriting the oldest entry once the buffer is full.
func (b *Buffer) Push(t engine.Transition) {
	b.slots[b.next] = t
	b.next = (b.next + 1) % len(b.slots)
	if b.next == 0 {
		b.full = true
	}
}

// Len returns the number of transitions currently held.
func (b *Buffer) Len() int {
	if b.full {
		return len(b.slots)
	}
	return b.next
}

// Sample draws batchSize transitions uniformly at random with replacement
// using rng. Returns fewer than batchSize only if the buffer is empty.
func (b *Buffer) Sample(batchSize int, rng *rand.Rand) []engine.Transition {
	n := b.Len()
	if n == 0 {
		return nil
	}
	out := make([]engine.Transition, batchSize)
	for i := 0; i < batchSize; i++ {
		out[i] = b.slots[rng.Intn(n)]
	}
	return out
}
