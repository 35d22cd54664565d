// Package httpmodel implements an HTTP message model: packed headers with
// trailer-topology tracking, a request/response buffer, status codes, and
// redirect constructors. HTTP/1 parsing, HTTP/2 frame multiplexing and
// application routing are explicitly out of scope — this package is the
// transport-agnostic container the rest of a server framework would parse
// into or serialize out of.
package httpmodel

import (
	"fmt"

	"github.com/humb1t/wtx/coreerr"
	"golang.org/x/net/http/httpguts"
)

const pkg = "httpmodel"

// Kind enumerates httpmodel error kinds.
type Kind string

const (
	KindAllocationError   Kind = "AllocationError"
	KindCapacityOverflow  Kind = "CapacityOverflow"
	KindUriMismatch       Kind = "UriMismatch"
	KindMissingHeader     Kind = "MissingHeader"
	KindHeaderTooLong     Kind = "HeaderTooLong"
	KindInvalidHeaderByte Kind = "InvalidHeaderByte"
)

func errf(kind Kind, format string, args ...any) error {
	return coreerr.New(pkg, string(kind), fmt.Sprintf(format, args...))
}

// Trailers tracks where, if anywhere, trailer headers sit among the
// ordinary headers of one message.
type Trailers struct {
	kind trailersKind
	tail int
}

type trailersKind int

const (
	trailersNone trailersKind = iota
	trailersTail
	trailersMixed
)

// None reports whether no trailer has ever been pushed.
func (t Trailers) None() bool { return t.kind == trailersNone }

// Mixed reports whether trailers are interleaved with non-trailers.
func (t Trailers) Mixed() bool { return t.kind == trailersMixed }

// Tail reports whether all trailers occupy a contiguous suffix starting at
// index k, returning (k, true); otherwise returns (0, false).
func (t Trailers) Tail() (int, bool) {
	if t.kind == trailersTail {
		return t.tail, true
	}
	return 0, false
}

// HasAny reports whether at least one trailer header of any topology has
// been pushed.
func (t Trailers) HasAny() bool { return t.kind != trailersNone }

func (t *Trailers) push(isTrailer bool, prevLen int) {
	if isTrailer {
		switch t.kind {
		case trailersMixed:
			// stays Mixed
		case trailersNone:
			t.kind = trailersTail
			t.tail = prevLen
		case trailersTail:
			// stays Tail(k) at its existing k
		}
		return
	}
	switch t.kind {
	case trailersMixed, trailersTail:
		t.kind = trailersMixed
	case trailersNone:
		// stays None
	}
}

// Header is one name/value pair view into a Headers' backing bytes.
type Header struct {
	Name        []byte
	Value       []byte
	IsSensitive bool
	IsTrailer   bool
}

// headerParts records the byte offsets of one pushed header within the
// shared bytes buffer.
type headerParts struct {
	begin       int
	nameEnd     int
	end         int
	isSensitive bool
	isTrailer   bool
}

// Headers packs an ordered list of (name, value, isSensitive, isTrailer)
// triples into one contiguous byte slice plus a parts table, avoiding a
// per-header allocation.
type Headers struct {
	bytes    []byte
	parts    []headerParts
	trailers Trailers
}

// New returns an empty Headers.
func New() *Headers { return &Headers{} }

// WithCapacity pre-sizes the backing byte slice and parts table.
func WithCapacity(bytesCap, headersCap int) *Headers {
	return &Headers{
		bytes: make([]byte, 0, bytesCap),
		parts: make([]headerParts, 0, headersCap),
	}
}

// BytesLen returns the number of bytes currently used by all headers.
func (h *Headers) BytesLen() int { return len(h.bytes) }

// HeadersLen returns the number of pushed headers.
func (h *Headers) HeadersLen() int { return len(h.parts) }

// Trailers reports the current trailer topology.
func (h *Headers) Trailers() Trailers { return h.trailers }

// Clear resets all state, retaining backing capacity.
func (h *Headers) Clear() {
	h.bytes = h.bytes[:0]
	h.parts = h.parts[:0]
	h.trailers = Trailers{}
}

func (h *Headers) headerAt(p headerParts) Header {
	return Header{
		Name:        h.bytes[p.begin:p.nameEnd],
		Value:       h.bytes[p.nameEnd:p.end],
		IsSensitive: p.isSensitive,
		IsTrailer:   p.isTrailer,
	}
}

// GetByIdx returns the header at idx, if any.
func (h *Headers) GetByIdx(idx int) (Header, bool) {
	if idx < 0 || idx >= len(h.parts) {
		return Header{}, false
	}
	return h.headerAt(h.parts[idx]), true
}

// GetByName returns the first header matching name, if any (first-match,
// linear scan).
func (h *Headers) GetByName(name []byte) (Header, bool) {
	for _, p := range h.parts {
		hdr := h.headerAt(p)
		if string(hdr.Name) == string(name) {
			return hdr, true
		}
	}
	return Header{}, false
}

// GetManyByName returns, for each of names, the first matching header,
// using a single linear scan over the stored headers rather than one scan
// per requested name.
func (h *Headers) GetManyByName(names [][]byte) []*Header {
	out := make([]*Header, len(names))
	remaining := len(names)
	for _, p := range h.parts {
		if remaining == 0 {
			break
		}
		hdr := h.headerAt(p)
		for i, name := range names {
			if out[i] != nil {
				continue
			}
			if string(hdr.Name) == string(name) {
				v := hdr
				out[i] = &v
				remaining--
			}
		}
	}
	return out
}

// Iter returns all headers in stable insertion order.
func (h *Headers) Iter() []Header {
	out := make([]Header, len(h.parts))
	for i, p := range h.parts {
		out[i] = h.headerAt(p)
	}
	return out
}

// Pop removes the last pushed header, returning false (and not mutating)
// if Headers is empty. Trailers is deliberately NOT recomputed: callers
// that need exact trailer topology after a pop must Clear and rebuild.
func (h *Headers) Pop() bool {
	n := len(h.parts)
	if n == 0 {
		return false
	}
	last := h.parts[n-1]
	h.parts = h.parts[:n-1]
	h.bytes = h.bytes[:last.begin]
	return true
}

// Reserve pre-allocates capacity for at least byteLen more bytes and
// headerCount more header parts.
func (h *Headers) Reserve(byteLen, headerCount int) error {
	if byteLen < 0 || headerCount < 0 {
		return errf(KindCapacityOverflow, "negative reservation")
	}
	if need := len(h.bytes) + byteLen; cap(h.bytes) < need {
		grown := make([]byte, len(h.bytes), need)
		copy(grown, h.bytes)
		h.bytes = grown
	}
	if need := len(h.parts) + headerCount; cap(h.parts) < need {
		grown := make([]headerParts, len(h.parts), need)
		copy(grown, h.parts)
		h.parts = grown
	}
	return nil
}

// PushFromIter appends one header whose value is the concatenation of
// values. Capacity is reserved up front so a mid-push allocation failure
// can never leave partial bytes behind.
func (h *Headers) PushFromIter(name []byte, values [][]byte, isSensitive, isTrailer bool) error {
	headerLen := len(name)
	for _, v := range values {
		headerLen += len(v)
	}
	if err := h.Reserve(headerLen, 1); err != nil {
		return err
	}
	begin := len(h.bytes)
	h.bytes = append(h.bytes, name...)
	nameEnd := len(h.bytes)
	for _, v := range values {
		h.bytes = append(h.bytes, v...)
	}
	end := len(h.bytes)

	prevLen := len(h.parts)
	h.parts = append(h.parts, headerParts{
		begin: begin, nameEnd: nameEnd, end: end,
		isSensitive: isSensitive, isTrailer: isTrailer,
	})
	h.trailers.push(isTrailer, prevLen)
	return nil
}

// PushFromFmt appends one header whose value is produced by fmt.Sprintf.
func (h *Headers) PushFromFmt(name []byte, isSensitive, isTrailer bool, format string, args ...any) error {
	value := fmt.Sprintf(format, args...)
	return h.PushFromIter(name, [][]byte{[]byte(value)}, isSensitive, isTrailer)
}

// ValidateOctets checks name and value against RFC 7230's header field
// grammar using golang.org/x/net/http/httpguts — the same validator the Go
// standard HTTP stack uses — rather than a hand-rolled scanner. The store
// itself is transport-agnostic; callers decide when validation is
// required.
func ValidateOctets(name, value []byte) error {
	if !httpguts.ValidHeaderFieldName(string(name)) {
		return errf(KindInvalidHeaderByte, "invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(string(value)) {
		return errf(KindInvalidHeaderByte, "invalid header value for %q", name)
	}
	return nil
}
