package websocket

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// deflateTail is the 4-byte trailer RFC 7692 says a permessage-deflate
// sender strips before transmission and a receiver must append back before
// feeding the concatenation to a raw-deflate decompressor.
var deflateTail = [4]byte{0x00, 0x00, 0xff, 0xff}

// NegotiatedCompression is the per-message compression extension the
// caller has already negotiated during the opening handshake (handshake
// negotiation itself is outside this package's scope). Enabled reports
// whether RSV1 should be set on outgoing data frames and accepted on
// incoming ones.
type NegotiatedCompression interface {
	Enabled() bool
	Compress(payload []byte) ([]byte, error)
	Decompress(payload []byte) ([]byte, error)
}

// NoCompression is the default NegotiatedCompression: RSV1 is never set
// and Compress/Decompress are identity.
type NoCompression struct{}

func (NoCompression) Enabled() bool                      { return false }
func (NoCompression) Compress(p []byte) ([]byte, error)   { return p, nil }
func (NoCompression) Decompress(p []byte) ([]byte, error) { return p, nil }

// PerMessageDeflate implements RFC 7692 permessage-deflate with no context
// takeover: every message gets a fresh deflate stream, trading compression
// ratio on small follow-up messages for a decoder with no cross-message
// state to track.
type PerMessageDeflate struct{}

func (PerMessageDeflate) Enabled() bool { return true }

func (PerMessageDeflate) Compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if bytes.HasSuffix(out, deflateTail[:]) {
		out = out[:len(out)-len(deflateTail)]
	}
	return out, nil
}

func (PerMessageDeflate) Decompress(payload []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(append(append([]byte(nil), payload...), deflateTail[:]...)))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}
