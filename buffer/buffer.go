// Package buffer implements a partitioned filled buffer: a single
// contiguous byte arena that lets framed-protocol parsers (PostgreSQL,
// WebSocket) return borrowed slices into one growable allocation instead of
// copying on every message.
//
// The arena is split into three logical, non-overlapping zones:
//
//	antecedent := [0, antecedentEnd)      already-consumed bytes, retained
//	                                      until an explicit reclaim
//	current    := [antecedentEnd, currentEnd) the in-scope parsed message
//	following  := [currentEnd, followingEnd)  read-ahead bytes belonging to
//	                                      the next message(s)
//
// Advancing to the next message reslices these boundaries; it never copies.
package buffer

import (
	"log/slog"

	units "github.com/docker/go-units"
	"github.com/humb1t/wtx/coreerr"
)

const pkg = "buffer"

// Kind enumerates buffer error kinds.
type Kind string

const (
	KindAllocationError       Kind = "AllocationError"
	KindUnexpectedBufferState Kind = "UnexpectedBufferState"
)

func errf(kind Kind, msg string) error { return coreerr.New(pkg, string(kind), msg) }

// Mode selects how a buffer should grow: either by a delta, or to reach an
// exact target length.
type Mode struct {
	additional bool
	n          int
}

// Additional requests growth by n bytes relative to the current length.
func Additional(n int) Mode { return Mode{additional: true, n: n} }

// Len requests growth so the buffer's logical length becomes exactly n.
func Len(n int) Mode { return Mode{additional: false, n: n} }

// params returns (delta, newLen) for the given current length, or ok=false
// if the request would shrink the buffer (treated as a no-op).
func (m Mode) params(length int) (delta, newLen int, ok bool) {
	if m.additional {
		return m.n, length + m.n, true
	}
	if m.n < length {
		return 0, 0, false
	}
	return m.n - length, m.n, true
}

// Partitioned is a partitioned filled buffer: one growable arena shared
// across reads, sliced into antecedent/current/following zones.
type Partitioned struct {
	data           []byte
	antecedentEnd  int
	currentEnd     int
	followingEnd   int
}

// New returns an empty partitioned buffer.
func New() *Partitioned {
	return &Partitioned{}
}

// WithCapacity pre-allocates cap bytes of backing storage.
func WithCapacity(capacity int) (*Partitioned, error) {
	p := &Partitioned{}
	if err := p.Reserve(capacity); err != nil {
		return nil, err
	}
	return p, nil
}

// Capacity returns the backing array's capacity.
func (p *Partitioned) Capacity() int { return cap(p.data) }

// AntecedentEnd, CurrentEnd and FollowingEnd expose the four boundary
// indices (0 is implicit) so callers/tests can assert invariant 1 of §8.
func (p *Partitioned) AntecedentEnd() int { return p.antecedentEnd }
func (p *Partitioned) CurrentEnd() int    { return p.currentEnd }
func (p *Partitioned) FollowingEnd() int  { return p.followingEnd }

// Antecedent returns the historical zone.
func (p *Partitioned) Antecedent() []byte { return p.data[:p.antecedentEnd] }

// Current returns the in-scope parsed message.
func (p *Partitioned) Current() []byte { return p.data[p.antecedentEnd:p.currentEnd] }

// CurrentRange returns the current zone's [start, end) range.
func (p *Partitioned) CurrentRange() (start, end int) { return p.antecedentEnd, p.currentEnd }

// Following returns the read-ahead zone.
func (p *Partitioned) Following() []byte { return p.data[p.currentEnd:p.followingEnd] }

// Buffer returns the whole backing array up to followingEnd, for callers
// that need to slice across zone boundaries (e.g. the PostgreSQL executor
// re-deriving a DataRow payload range).
func (p *Partitioned) Buffer() []byte { return p.data[:p.followingEnd] }

// Reserve grows the backing array's capacity by at least additional bytes,
// never shrinking. It never invalidates previously returned slices because
// Go's append-based growth always reallocates into a fresh array when
// capacity is exceeded — existing slices over the old array remain valid
// reads, they simply stop aliasing the live buffer, which mirrors the
// "slices stay alive until next explicit reclamation" contract for readers
// that copy out of Current() before the next advance.
func (p *Partitioned) Reserve(additional int) error {
	if additional <= 0 {
		return nil
	}
	need := len(p.data) + additional
	if need < 0 {
		return errf(KindAllocationError, "capacity overflow")
	}
	if cap(p.data) >= need {
		return nil
	}
	grown := make([]byte, len(p.data), need)
	copy(grown, p.data)
	p.data = grown
	slog.Debug("buffer: grew backing array", "capacity", units.HumanSize(float64(need)))
	return nil
}

// FollowingTrailMut returns a writable tail sized to the current following
// zone, for a network read to fill in place.
func (p *Partitioned) FollowingTrailMut() []byte {
	return p.data[p.currentEnd:p.followingEnd]
}

// ExpandFollowing logically extends the following zone by n zero-filled
// bytes, growing backing storage first if needed.
func (p *Partitioned) ExpandFollowing(n int) error {
	if n <= 0 {
		return nil
	}
	needLen := p.followingEnd + n
	if needLen > len(p.data) {
		if err := p.Reserve(needLen - len(p.data)); err != nil {
			return err
		}
		p.data = p.data[:needLen]
	}
	p.followingEnd = needLen
	return nil
}

// SetIndices atomically re-partitions the buffer: the new antecedent end is
// given directly, and currentLen/followingLen are lengths relative to it.
// Returns UnexpectedBufferState — leaving the buffer unchanged — if the
// resulting indices would violate the monotone ordering invariant or run
// past the buffer's filled length.
func (p *Partitioned) SetIndices(newAntecedentEnd, currentLen, followingLen int) error {
	if newAntecedentEnd < 0 || currentLen < 0 || followingLen < 0 {
		return errf(KindUnexpectedBufferState, "negative index")
	}
	newCurrentEnd := newAntecedentEnd + currentLen
	newFollowingEnd := newCurrentEnd + followingLen
	if newAntecedentEnd > newCurrentEnd || newCurrentEnd > newFollowingEnd || newFollowingEnd > len(p.data) {
		return errf(KindUnexpectedBufferState, "indices out of order or out of bounds")
	}
	p.antecedentEnd = newAntecedentEnd
	p.currentEnd = newCurrentEnd
	p.followingEnd = newFollowingEnd
	return nil
}

// ClearIfFollowingIsEmpty is the only mutator that reclaims space: it
// compacts the arena back to an empty antecedent/current/following triple
// when nothing is queued in the following zone. Compaction is lazy by
// design — slices handed out during parsing stay valid until the next
// explicit call to this function.
func (p *Partitioned) ClearIfFollowingIsEmpty() {
	if p.currentEnd != p.followingEnd {
		return
	}
	p.data = p.data[:0]
	p.antecedentEnd = 0
	p.currentEnd = 0
	p.followingEnd = 0
}

// Expand grows the buffer's logical length according to mode, zero-filling
// any newly exposed bytes, and folds the new length into the following
// zone.
func (p *Partitioned) Expand(mode Mode) error {
	delta, newLen, ok := mode.params(len(p.data))
	if !ok {
		return nil
	}
	if err := p.Reserve(delta); err != nil {
		return err
	}
	p.data = p.data[:newLen]
	if newLen > p.followingEnd {
		p.followingEnd = newLen
	}
	return nil
}
