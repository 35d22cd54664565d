package websocket

import (
	"bytes"
	"context"
	"testing"

	"github.com/humb1t/wtx/lock"
	"github.com/humb1t/wtx/rng"
	"github.com/humb1t/wtx/stream"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		opcode  Opcode
		fin     bool
		masked  bool
		payload []byte
	}{
		{"small unmasked", OpText, true, false, []byte("hi")},
		{"small masked", OpBinary, true, true, []byte("hello")},
		{"126-boundary", OpBinary, true, false, bytes.Repeat([]byte{'x'}, 126)},
		{"extended 64", OpBinary, true, false, bytes.Repeat([]byte{'y'}, 70000)},
		{"continuation not fin", OpContinuation, false, false, []byte("part")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var key [4]byte
			if c.masked {
				key = [4]byte{1, 2, 3, 4}
			}
			hs := headerSize(len(c.payload), c.masked)
			buf := make([]byte, hs+len(c.payload))
			n := encodeHeader(buf, c.fin, false, c.opcode, len(c.payload), c.masked, key)
			if n != hs {
				t.Fatalf("encodeHeader wrote %d bytes, want %d", n, hs)
			}
			payload := append([]byte(nil), c.payload...)
			copy(buf[n:], payload)
			if c.masked {
				maskInPlace(buf[n:], key)
			}

			b0, b1 := buf[0], buf[1]
			extended, masked := peekBaseLen(b0, b1)
			if masked != c.masked {
				t.Fatalf("masked = %v, want %v", masked, c.masked)
			}
			hdr, err := decodeHeader(buf[:2+extended])
			if err != nil {
				t.Fatal(err)
			}
			if hdr.fin != c.fin || hdr.opcode != c.opcode || hdr.payloadLen != len(c.payload) {
				t.Fatalf("decoded header mismatch: %+v", hdr)
			}
			got := buf[hdr.headerLen:]
			if hdr.masked {
				maskInPlace(got, hdr.key)
			}
			if !bytes.Equal(got, c.payload) {
				t.Fatalf("payload round-trip mismatch: got %q want %q", got, c.payload)
			}
		})
	}
}

func TestControlFrameOversizedPayloadIsProtocolError(t *testing.T) {
	buf := make([]byte, 2)
	buf[0] = 0x80 | byte(OpPing) // FIN=1, opcode=Ping
	buf[1] = 126                // signals extended 16-bit length: oversized control frame
	extended, _ := peekBaseLen(buf[0], buf[1])
	full := make([]byte, 2+extended)
	copy(full, buf)
	full[2] = 0
	full[3] = 126
	if _, err := decodeHeader(full); err != ErrProtocolError {
		t.Fatalf("err = %v, want ErrProtocolError", err)
	}
}

func TestFragmentationReassembly(t *testing.T) {
	// Scenario: Text("foo", FIN=0) + Continuation("bar", FIN=1) must yield
	// a single Text frame with payload "foobar".
	s := stream.NewBytes()
	writeRawFrame(s, false, false, OpText, []byte("foo"), true, [4]byte{1, 2, 3, 4})
	writeRawFrame(s, true, false, OpContinuation, []byte("bar"), true, [4]byte{1, 2, 3, 4})

	common := newTestCommonServer(s)
	rp := NewReaderPart(common, false, s)

	frame, err := rp.ReadFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Opcode != OpText || string(frame.Payload) != "foobar" {
		t.Fatalf("frame = %+v, want Text(foobar)", frame)
	}
}

func TestControlFrameDeliveredMidFragment(t *testing.T) {
	s := stream.NewBytes()
	writeRawFrame(s, false, false, OpText, []byte("foo"), true, [4]byte{1, 2, 3, 4})
	writeRawFrame(s, true, false, OpPing, []byte("ping-payload"), true, [4]byte{1, 2, 3, 4})
	writeRawFrame(s, true, false, OpContinuation, []byte("bar"), true, [4]byte{1, 2, 3, 4})

	common := newTestCommonServer(s)
	rp := NewReaderPart(common, false, s)

	frame, err := rp.ReadFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Opcode != OpPing || string(frame.Payload) != "ping-payload" {
		t.Fatalf("expected the Ping to be delivered out-of-band first, got %+v", frame)
	}

	frame, err = rp.ReadFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Opcode != OpText || string(frame.Payload) != "foobar" {
		t.Fatalf("expected reassembly to resume after the control frame, got %+v", frame)
	}
}

func TestMixingDataOpcodeBeforeFinIsProtocolError(t *testing.T) {
	s := stream.NewBytes()
	writeRawFrame(s, false, false, OpText, []byte("foo"), true, [4]byte{1, 2, 3, 4})
	writeRawFrame(s, true, false, OpBinary, []byte("bar"), true, [4]byte{1, 2, 3, 4})

	common := newTestCommonServer(s)
	rp := NewReaderPart(common, false, s)

	// ReadFrame buffers the non-FIN Text fragment and keeps reading, so the
	// Binary frame is rejected within the same call.
	if _, err := rp.ReadFrame(context.Background()); err != ErrProtocolError {
		t.Fatalf("err = %v, want ErrProtocolError", err)
	}
}

func TestCloseHandshakeEchoesStatusAndClosesConnection(t *testing.T) {
	s := stream.NewBytes()
	writeRawFrame(s, true, false, OpClose, []byte{0x03, 0xE9}, true, [4]byte{1, 2, 3, 4}) // 1001

	common := newTestCommonServer(s)
	rp := NewReaderPart(common, false, s)

	frame, err := rp.ReadFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Opcode != OpClose {
		t.Fatalf("opcode = %v, want Close", frame.Opcode)
	}

	g := common.Lock()
	state := g.Value.State
	g.Unlock()
	if state != StateClosed {
		t.Fatalf("state = %v, want StateClosed", state)
	}

	written := s.Written()
	if len(written) == 0 {
		t.Fatal("expected the Close echo to have been written to the stream")
	}
	if written[0]&0x0F != byte(OpClose) {
		t.Fatal("expected the echoed frame to be a Close frame")
	}
}

func TestWriteFrameAfterCloseFails(t *testing.T) {
	s := stream.NewBytes()
	common := newTestCommonServer(s)
	wp := NewWriterPart(common)

	if err := wp.Close(context.Background(), 1000); err != nil {
		t.Fatal(err)
	}
	if err := wp.WriteFrame(context.Background(), OpText, []byte("hi"), false); err != ErrConnectionClosed {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
}

func TestWriteFrameChunksOverMaxFrameSize(t *testing.T) {
	s := stream.NewBytes()
	common := newTestCommonServer(s)
	wp := NewWriterPart(common)
	wp.maxFrameSize = 4

	if err := wp.WriteFrame(context.Background(), OpBinary, []byte("abcdefgh"), false); err != nil {
		t.Fatal(err)
	}

	// Read the server's unmasked output back as its client peer would.
	s.Feed(s.Written())
	rp := NewReaderPart(common, true, s)
	frame, err := rp.ReadFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Opcode != OpBinary || string(frame.Payload) != "abcdefgh" {
		t.Fatalf("frame = %+v, want Binary(abcdefgh)", frame)
	}
}

func TestCompressedMessageRoundTrip(t *testing.T) {
	s := stream.NewBytes()
	common := lock.NewMutex(*NewCommonPart(false, PerMessageDeflate{}, rng.NewXorshift64(1), s))
	wp := NewWriterPart(common)
	rp := NewReaderPart(common, true, s)

	payload := bytes.Repeat([]byte("compress-me "), 50)
	if err := wp.WriteFrame(context.Background(), OpText, payload, true); err != nil {
		t.Fatal(err)
	}
	// Read the server's unmasked output back as its client peer would.
	s.Feed(s.Written())

	frame, err := rp.ReadFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("decompressed payload mismatch: got %d bytes, want %d", len(frame.Payload), len(payload))
	}
}

// writeRawFrame hand-encodes one physical frame straight onto s, for tests
// that need to feed the reader raw wire bytes without going through
// WriterPart.
func writeRawFrame(s *stream.Bytes, fin, rsv1 bool, opcode Opcode, payload []byte, masked bool, key [4]byte) {
	hs := headerSize(len(payload), masked)
	buf := make([]byte, hs+len(payload))
	n := encodeHeader(buf, fin, rsv1, opcode, len(payload), masked, key)
	copy(buf[n:], payload)
	if masked {
		maskInPlace(buf[n:], key)
	}
	s.Feed(buf)
}

// newTestCommonServer builds a server-side (isClient=false) CommonPart
// lock over s, with compression disabled, for tests that only exercise
// framing/reassembly/close-handshake behavior.
func newTestCommonServer(s *stream.Bytes) lock.Lock[CommonPart] {
	return lock.NewMutex(*NewCommonPart(false, nil, rng.NewXorshift64(1), s))
}
