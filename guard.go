package rpccodec

import "github.com/cockroachdb/errors"

// Guard bounds the total allocation a payload can ask for.
//
// Every decode path that is about to allocate a container sized by the stream
// claims its length first. Claims are never released, so the sum of all claims
// over a whole decode, at any nesting depth, cannot exceed what the payload
// could actually back: one slot per remaining word (or token) plus one per
// string table entry.
type Guard struct {
	available int64
	claimed   int64
}

// NewGuard creates a guard with a fixed budget.
func NewGuard(available int) *Guard {
	if available < 0 {
		available = 0
	}
	return &Guard{available: int64(available)}
}

// Claim reserves n slots.
func (g *Guard) Claim(n int) error {
	if n < 0 {
		return corruptf("negative claim %d", n)
	}
	if int64(n) > g.available-g.claimed {
		return errors.Wrapf(ErrResourceLimitExceeded, "claim of %d with %d of %d already claimed", n, g.claimed, g.available)
	}
	g.claimed += int64(n)
	return nil
}

// Claimed returns the running total of successful claims.
func (g *Guard) Claimed() int64 { return g.claimed }

// Available returns the fixed budget.
func (g *Guard) Available() int64 { return g.available }
