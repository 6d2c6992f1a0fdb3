package idgen

import (
	"math/rand/v2"
	"time"
)

// SystemClock reads the real wall clock.
type SystemClock struct{}

// NowNano returns time.Now().UnixNano(). A single read per candidate id,
// never polled in a loop.
func (SystemClock) NowNano() int64 { return time.Now().UnixNano() }

// SystemRng draws from the process-wide, non-cryptographic PRNG. Conference
// ids only need to be hard to collide, not hard to predict, so
// math/rand/v2's fast generator is sufficient and avoids contending on the
// crypto/rand entropy pool on every conference create.
type SystemRng struct{}

// Uint64 returns a pseudorandom 64-bit value.
func (SystemRng) Uint64() uint64 { return rand.Uint64() }
