package websocket

import (
	"context"

	"github.com/humb1t/wtx/buffer"
	"github.com/humb1t/wtx/lock"
	"github.com/humb1t/wtx/stream"
)

// readChunkSize mirrors the postgres executor's pipelined-read margin: grow
// the following zone past the immediate deficit so one physical Read can
// capture more than the frame currently being parsed needs.
const readChunkSize = 4096

// ReaderPart reads and reassembles frames from one connection's read half.
// Fragmented data sequences (Text/Binary followed by zero or more
// Continuation frames) are buffered here until FIN=1, then returned to the
// caller as one logical Frame — control frames arriving mid-sequence are
// returned immediately instead, out-of-band, without disturbing the
// in-progress reassembly.
type ReaderPart struct {
	common   lock.Lock[CommonPart]
	stream   stream.Reader
	nb       *buffer.Partitioned
	isClient bool

	fragOpen   bool
	fragOpcode Opcode
	fragRsv1   bool
	reassembly []byte
}

// NewReaderPart constructs a reader half over common's shared state.
func NewReaderPart(common lock.Lock[CommonPart], isClient bool, r stream.Reader) *ReaderPart {
	return &ReaderPart{common: common, stream: r, nb: buffer.New(), isClient: isClient}
}

// ReadFrame returns the next logical frame: a complete (already
// reassembled, already decompressed) data frame, or a control frame
// delivered as soon as it arrives.
func (rp *ReaderPart) ReadFrame(ctx context.Context) (Frame, error) {
	for {
		hdr, payload, err := rp.readPhysicalFrame(ctx)
		if err != nil {
			return Frame{}, err
		}

		expectMasked := !rp.isClient
		if hdr.masked != expectMasked {
			return Frame{}, ErrProtocolError
		}

		if hdr.opcode.IsControl() {
			if err := rp.handleControl(ctx, hdr.opcode, payload); err != nil {
				return Frame{}, err
			}
			if hdr.opcode == OpClose {
				return Frame{Fin: true, Opcode: OpClose, Payload: payload}, nil
			}
			return Frame{Fin: true, Opcode: hdr.opcode, Payload: payload}, nil
		}

		if hdr.opcode == OpContinuation {
			if !rp.fragOpen {
				return Frame{}, ErrProtocolError
			}
			rp.reassembly = append(rp.reassembly, payload...)
			if !hdr.fin {
				continue
			}
			return rp.finishFragment()
		}

		// Text or Binary: starts a new sequence.
		if rp.fragOpen {
			return Frame{}, ErrProtocolError
		}
		if hdr.fin {
			out, err := rp.decompressIfNeeded(hdr.rsv1, payload)
			if err != nil {
				return Frame{}, err
			}
			return Frame{Fin: true, Opcode: hdr.opcode, Payload: out}, nil
		}
		rp.fragOpen = true
		rp.fragOpcode = hdr.opcode
		rp.fragRsv1 = hdr.rsv1
		rp.reassembly = append(rp.reassembly[:0], payload...)
	}
}

func (rp *ReaderPart) finishFragment() (Frame, error) {
	out, err := rp.decompressIfNeeded(rp.fragRsv1, rp.reassembly)
	opcode := rp.fragOpcode
	rp.fragOpen = false
	rp.fragOpcode = 0
	rp.fragRsv1 = false
	rp.reassembly = nil
	if err != nil {
		return Frame{}, err
	}
	return Frame{Fin: true, Opcode: opcode, Payload: out}, nil
}

func (rp *ReaderPart) decompressIfNeeded(rsv1 bool, payload []byte) ([]byte, error) {
	if !rsv1 {
		return payload, nil
	}
	g := rp.common.Lock()
	defer g.Unlock()
	if !g.Value.Compressed.Enabled() {
		return payload, ErrProtocolError
	}
	return g.Value.Compressed.Decompress(payload)
}

// handleControl reacts to Ping/Pong/Close per the close handshake: Ping is
// answered with a Pong echoing the same payload; Close received while the
// connection is Open echoes a Close frame carrying the peer's status code
// (or 1000 if none) and moves the connection to Closed, and Close received
// after this side already sent one (Closing) moves it to Closed without an
// echo.
func (rp *ReaderPart) handleControl(ctx context.Context, opcode Opcode, payload []byte) error {
	switch opcode {
	case OpPing:
		g := rp.common.Lock()
		err := writeFrameLocked(ctx, g.Value, true, false, OpPong, payload)
		g.Unlock()
		return err
	case OpClose:
		g := rp.common.Lock()
		already := g.Value.State != StateOpen
		var err error
		if !already {
			err = writeFrameLocked(ctx, g.Value, true, false, OpClose, closeStatusOrDefault(payload))
		}
		g.Value.State = StateClosed
		g.Unlock()
		return err
	default:
		return nil
	}
}

// readPhysicalFrame reads exactly one wire frame (header + payload),
// unmasking the payload in place when masked, and returns its header and
// payload slice.
func (rp *ReaderPart) readPhysicalFrame(ctx context.Context) (decodedHeader, []byte, error) {
	if err := ensureBuffered(ctx, rp.nb, 2, rp.stream); err != nil {
		return decodedHeader{}, nil, err
	}
	b0, b1 := rp.nb.FollowingTrailMut()[0], rp.nb.FollowingTrailMut()[1]
	extended, _ := peekBaseLen(b0, b1)
	if err := ensureBuffered(ctx, rp.nb, 2+extended, rp.stream); err != nil {
		return decodedHeader{}, nil, err
	}

	hdr, err := decodeHeader(rp.nb.FollowingTrailMut()[:2+extended])
	if err != nil {
		return decodedHeader{}, nil, err
	}

	total := hdr.headerLen + hdr.payloadLen
	if err := ensureBuffered(ctx, rp.nb, total, rp.stream); err != nil {
		return decodedHeader{}, nil, err
	}

	have := rp.nb.FollowingEnd() - rp.nb.CurrentEnd()
	currentEnd := rp.nb.CurrentEnd()
	if err := rp.nb.SetIndices(currentEnd, total, have-total); err != nil {
		return decodedHeader{}, nil, err
	}

	payload := rp.nb.Current()[hdr.headerLen:]
	if hdr.masked {
		maskInPlace(payload, hdr.key)
	}
	return hdr, payload, nil
}

// ensureBuffered grows nb's following zone (if needed) to hold at least n
// bytes measured from currentEnd, reading from s to fill any newly exposed
// region not already buffered — the same overshoot-tolerant technique the
// postgres executor's fetch path uses, so a read delivering more than one
// frame's worth of bytes leaves the remainder buffered for the next call.
func ensureBuffered(ctx context.Context, nb *buffer.Partitioned, n int, s stream.Reader) error {
	have := nb.FollowingEnd() - nb.CurrentEnd()
	if n <= have {
		return nil
	}
	target := n
	if target < have+readChunkSize {
		target = have + readChunkSize
	}
	if err := nb.ExpandFollowing(target - have); err != nil {
		return err
	}
	for have < n {
		trail := nb.FollowingTrailMut()
		r, err := s.Read(ctx, trail[have:])
		if err != nil {
			return err
		}
		if r == 0 {
			return errf(KindProtocolError, "stream closed mid-frame")
		}
		have += r
	}
	// Keep only the bytes actually read in the following zone.
	return nb.SetIndices(nb.AntecedentEnd(), nb.CurrentEnd()-nb.AntecedentEnd(), have)
}
