// Package websocket implements RFC 6455 framing (masking, fragmentation,
// control vs data dispatch) and a split reader/writer endpoint sharing one
// lock-guarded connection state, layered on the same buffer.Partitioned
// substrate the postgres package uses.
package websocket

import (
	"encoding/binary"

	"github.com/humb1t/wtx/rng"
)

// Opcode is the 4-bit frame opcode.
type Opcode uint8

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// IsControl reports whether the opcode is one of Close/Ping/Pong: the
// high bit of the opcode nibble is set for every control opcode and
// cleared for every data opcode in RFC 6455.
func (o Opcode) IsControl() bool { return o&0x8 != 0 }

func (o Opcode) isReserved() bool {
	switch o {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return false
	default:
		return true
	}
}

// maxControlPayload is RFC 6455's limit on control frame payload length.
const maxControlPayload = 125

// Frame is one decoded WebSocket frame: a complete control frame, or one
// piece of a (possibly fragmented) data message.
type Frame struct {
	Fin     bool
	Rsv1    bool // set when the payload is compressed (permessage-deflate)
	Opcode  Opcode
	Payload []byte
}

// maskKey generates a fresh 4-byte client mask key from r.
func maskKey(r rng.Rng) [4]byte {
	var k [4]byte
	r.FillSlice(k[:])
	return k
}

// maskInPlace XORs payload with key, cycling the 4-byte key — its own
// inverse, so the same call unmasks a masked payload.
func maskInPlace(payload []byte, key [4]byte) {
	for i := range payload {
		payload[i] ^= key[i%4]
	}
}

// headerSize returns how many bytes the frame header occupies for a given
// payload length and mask presence: 2 base bytes, plus 2 or 8 extended
// length bytes, plus 4 mask-key bytes when masked.
func headerSize(payloadLen int, masked bool) int {
	n := 2
	switch {
	case payloadLen >= 65536:
		n += 8
	case payloadLen >= 126:
		n += 2
	}
	if masked {
		n += 4
	}
	return n
}

// encodeHeader writes a frame header into dst (which must be at least
// headerSize(len(payload), masked) bytes) and returns the number of bytes
// written.
func encodeHeader(dst []byte, fin, rsv1 bool, opcode Opcode, payloadLen int, masked bool, key [4]byte) int {
	var b0 byte
	if fin {
		b0 |= 0x80
	}
	if rsv1 {
		b0 |= 0x40
	}
	b0 |= byte(opcode) & 0x0F
	dst[0] = b0

	var b1 byte
	if masked {
		b1 |= 0x80
	}
	i := 2
	switch {
	case payloadLen >= 65536:
		b1 |= 127
		binary.BigEndian.PutUint64(dst[2:10], uint64(payloadLen))
		i = 10
	case payloadLen >= 126:
		b1 |= 126
		binary.BigEndian.PutUint16(dst[2:4], uint16(payloadLen))
		i = 4
	default:
		b1 |= byte(payloadLen)
	}
	dst[1] = b1
	if masked {
		copy(dst[i:i+4], key[:])
		i += 4
	}
	return i
}

// decodedHeader is the parsed form of a frame header, before the payload
// (and, if masked, the mask key) has been read.
type decodedHeader struct {
	fin        bool
	rsv1       bool
	opcode     Opcode
	masked     bool
	key        [4]byte
	payloadLen int
	// headerLen is the total number of header bytes consumed, so the
	// caller knows where the payload starts.
	headerLen int
}

// peekBaseLen returns how many more bytes are needed to know the full
// header length, given the first 2 header bytes (the minimum any frame
// ever needs before its length can even be classified).
func peekBaseLen(b0, b1 byte) (extended int, masked bool) {
	masked = b1&0x80 != 0
	switch b1 & 0x7F {
	case 126:
		extended = 2
	case 127:
		extended = 8
	}
	if masked {
		extended += 4
	}
	return extended, masked
}

// decodeHeader parses a complete header (2 base bytes plus whatever
// extended-length/mask-key bytes peekBaseLen said to wait for) out of buf.
func decodeHeader(buf []byte) (decodedHeader, error) {
	b0, b1 := buf[0], buf[1]
	fin := b0&0x80 != 0
	rsv1 := b0&0x40 != 0
	rsv2 := b0&0x20 != 0
	rsv3 := b0&0x10 != 0
	opcode := Opcode(b0 & 0x0F)
	if rsv2 || rsv3 || opcode.isReserved() {
		return decodedHeader{}, ErrProtocolError
	}

	extended, masked := peekBaseLen(b0, b1)
	if len(buf) < 2+extended {
		return decodedHeader{}, errf(KindProtocolError, "short header")
	}

	i := 2
	var payloadLen int
	switch b1 & 0x7F {
	case 127:
		payloadLen = int(binary.BigEndian.Uint64(buf[i : i+8]))
		i += 8
	case 126:
		payloadLen = int(binary.BigEndian.Uint16(buf[i : i+2]))
		i += 2
	default:
		payloadLen = int(b1 & 0x7F)
	}

	var key [4]byte
	if masked {
		copy(key[:], buf[i:i+4])
		i += 4
	}

	if opcode.IsControl() && (payloadLen > maxControlPayload || !fin) {
		return decodedHeader{}, ErrProtocolError
	}

	return decodedHeader{
		fin:        fin,
		rsv1:       rsv1,
		opcode:     opcode,
		masked:     masked,
		key:        key,
		payloadLen: payloadLen,
		headerLen:  i,
	}, nil
}
