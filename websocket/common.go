package websocket

import (
	"context"

	"github.com/humb1t/wtx/rng"
	"github.com/humb1t/wtx/stream"
)

// ConnectionState tracks the close handshake's three states.
type ConnectionState uint8

const (
	StateOpen ConnectionState = iota
	StateClosing
	StateClosed
)

// CommonPart is the state shared between a connection's reader and writer
// halves: the connection-state machine, the negotiated compression
// extension, the mask-key source, and the write half of the stream. A
// split endpoint (see Split) guards one CommonPart behind a lock.Lock so
// the writer takes it per write_frame while the reader only touches it
// when it must observe or mutate connection state (on receiving Close).
type CommonPart struct {
	State      ConnectionState
	Compressed NegotiatedCompression
	Rng        rng.Rng
	Writer     stream.Writer
	isClient   bool
}

// NewCommonPart constructs the shared state for one connection. isClient
// selects masking direction: a client masks outgoing frames and rejects
// masked inbound frames; a server requires the reverse.
func NewCommonPart(isClient bool, compressed NegotiatedCompression, r rng.Rng, w stream.Writer) *CommonPart {
	if compressed == nil {
		compressed = NoCompression{}
	}
	return &CommonPart{Compressed: compressed, Rng: r, Writer: w, isClient: isClient}
}

// writeFrameLocked encodes and writes one physical frame. Called with the
// CommonPart's lock already held by the caller (write_frame or the Close
// echo path).
func writeFrameLocked(ctx context.Context, c *CommonPart, fin, rsv1 bool, opcode Opcode, payload []byte) error {
	if c.State != StateOpen {
		return ErrConnectionClosed
	}
	masked := c.isClient
	var key [4]byte
	if masked {
		key = maskKey(c.Rng)
	}
	hs := headerSize(len(payload), masked)
	out := make([]byte, hs+len(payload))
	n := encodeHeader(out, fin, rsv1, opcode, len(payload), masked, key)
	copy(out[n:], payload)
	if masked {
		maskInPlace(out[n:], key)
	}
	return c.Writer.WriteAll(ctx, out)
}

// closeStatusOrDefault extracts the 2-byte status code from a Close
// frame's payload, defaulting to 1000 (normal closure) when absent, per
// the close-handshake rule of echoing the peer's code or 1000 if none.
func closeStatusOrDefault(payload []byte) []byte {
	if len(payload) >= 2 {
		return payload[:2]
	}
	return []byte{0x03, 0xE8} // 1000, big-endian
}
