package backoff

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// uncappedLimit bounds policies built without a maximum delay.
const uncappedLimit = 24 * time.Hour

// Policy computes exponential delays with up to 20% random jitter.
type Policy struct {
	Base time.Duration
	Max  time.Duration
}

func New(base, maxDelay time.Duration) Policy {
	return Policy{Base: base, Max: maxDelay}
}

// Delay returns the wait before retry number attempt (0-based)
func (p Policy) Delay(attempt int) time.Duration {
	if p.Base <= 0 {
		return 0
	}
	limit := p.Max
	if limit <= 0 {
		limit = uncappedLimit
	}

	waitTime := p.Base
	for i := 0; i < attempt && waitTime < limit; i++ {
		waitTime *= 2
	}
	if waitTime > limit {
		waitTime = limit
	}

	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// mask high bit to stay positive
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- safe conversion after masking
	return int64(uval) % n
}
