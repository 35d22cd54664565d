package websocket

import (
	"context"

	"github.com/humb1t/wtx/lock"
)

// defaultMaxFrameSize bounds how large a single physical frame's payload
// may be before WriteFrame chunks a message into Continuation frames.
const defaultMaxFrameSize = 1 << 16

// WriterPart writes (and, if negotiated, compresses) logical messages as
// one or more physical frames.
type WriterPart struct {
	common       lock.Lock[CommonPart]
	maxFrameSize int
}

// NewWriterPart constructs a writer half over common's shared state, with
// the default max frame size.
func NewWriterPart(common lock.Lock[CommonPart]) *WriterPart {
	return &WriterPart{common: common, maxFrameSize: defaultMaxFrameSize}
}

// WriteFrame sends payload as opcode, compressing first when compress is
// true and compression was negotiated, then chunking into frames no larger
// than the writer's max frame size: the first frame carries opcode, every
// following chunk carries Continuation, and FIN is set on the last. The
// whole logical message is written while holding the shared lock, so two
// concurrent WriteFrame calls can never interleave their chunks.
func (wp *WriterPart) WriteFrame(ctx context.Context, opcode Opcode, payload []byte, compress bool) error {
	g := wp.common.Lock()
	defer g.Unlock()

	if opcode.IsControl() {
		if len(payload) > maxControlPayload {
			return ErrProtocolError
		}
		return writeFrameLocked(ctx, g.Value, true, false, opcode, payload)
	}

	body := payload
	rsv1 := false
	if compress && g.Value.Compressed.Enabled() {
		compressed, err := g.Value.Compressed.Compress(payload)
		if err != nil {
			return err
		}
		body = compressed
		rsv1 = true
	}

	if len(body) <= wp.maxFrameSize {
		return writeFrameLocked(ctx, g.Value, true, rsv1, opcode, body)
	}

	for i := 0; i < len(body); i += wp.maxFrameSize {
		end := i + wp.maxFrameSize
		if end > len(body) {
			end = len(body)
		}
		fin := end == len(body)
		frameOpcode := opcode
		frameRsv1 := rsv1
		if i > 0 {
			frameOpcode = OpContinuation
			frameRsv1 = false
		}
		if err := writeFrameLocked(ctx, g.Value, fin, frameRsv1, frameOpcode, body[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// Close initiates the close handshake: sends a Close frame carrying code,
// transitions to Closing. The peer's echoed Close (observed by the reader
// half) completes the transition to Closed.
func (wp *WriterPart) Close(ctx context.Context, code uint16) error {
	g := wp.common.Lock()
	defer g.Unlock()
	if g.Value.State != StateOpen {
		return ErrConnectionClosed
	}
	payload := []byte{byte(code >> 8), byte(code)}
	err := writeFrameLocked(ctx, g.Value, true, false, OpClose, payload)
	g.Value.State = StateClosing
	return err
}
