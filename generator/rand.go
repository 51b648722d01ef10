package generator

import (
	"time"
)

const seedMask = (uint64(1) << 48) - 1

// Rand is a small, fast pseudo-random number generator owned by a single
// worker. Unlike the shared math/rand source, every worker gets its own
// instance so request streams stay reproducible and decorrelated across
// workers without any locking.
type Rand struct {
	state uint64
}

func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 88172645463325252
	}
	return &Rand{
		state: seed,
	}
}

// DeriveSeed mixes the free-running clock with the worker id so independent
// workers draw from unrelated streams. Consecutive seeds (seed, seed+1, ...)
// are themselves usable for decorrelated sibling generators.
func DeriveSeed(workerID uint64) uint64 {
	return (4 * workerID * uint64(time.Now().UnixNano())) & seedMask
}

func (self *Rand) next() uint64 {
	// xorshift64
	x := self.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	self.state = x
	return x
}

// NextUint32 returns a uniform 32-bit draw. The executor uses it both as a
// probability trial against a precomputed threshold and as a direct
// key/column selector.
func (self *Rand) NextUint32() uint32 {
	return uint32(self.next() >> 32)
}

// NextFloat64 returns a uniform draw in [0, 1).
func (self *Rand) NextFloat64() float64 {
	return float64(self.next()>>11) / float64(uint64(1)<<53)
}
