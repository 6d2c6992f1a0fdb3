// Package idgen generates short, node-local conference identifiers.
//
// Ids combine a monotonic-ish time reading with a pseudorandom draw and
// encode the result as compact hex, following the same "combine a time
// signal with a random nonce, encode to a dense alphabet" shape the rest
// of the corpus uses for content-hash ids — except here the input is the
// clock and an RNG rather than a content hash, since ids must be cheap to
// mint in a tight collision-retry loop rather than derived from request
// content.
package idgen

import (
	"encoding/binary"
	"encoding/hex"
)

// Clock supplies the current time as nanoseconds since an arbitrary epoch.
// Injected so tests can control id generation deterministically.
type Clock interface {
	NowNano() int64
}

// Rng supplies pseudorandom bytes. Injected so tests can control id
// generation deterministically.
type Rng interface {
	Uint64() uint64
}

// idByteLen is the number of random bytes mixed into each candidate id.
// Combined with the 8 bytes of the time reading this yields a 16-byte
// value, hex-encoded to 32 characters -- short enough to be a convenient
// wire identifier, wide enough that collisions are rare.
const idByteLen = 8

// Generate produces a single candidate conference id. It is a pure
// function of its inputs: callers retry with a fresh draw from rng on
// collision, never by re-reading the clock in a spin loop (the clock is
// read once per candidate, not polled).
func Generate(clock Clock, rng Rng) string {
	var buf [8 + idByteLen]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(clock.NowNano()))
	binary.BigEndian.PutUint64(buf[8:], rng.Uint64())
	return hex.EncodeToString(buf[:])
}
