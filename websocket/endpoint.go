package websocket

import (
	"github.com/humb1t/wtx/lock"
	"github.com/humb1t/wtx/rng"
	"github.com/humb1t/wtx/stream"
)

// Endpoint is a single-owner WebSocket connection: one goroutine drives
// both ReadFrame and WriteFrame. It still routes through a lock.Mutex the
// same way Split does (uncontended here, since nothing shares it), so the
// reader/writer code paths are identical whether or not the connection is
// actually split.
type Endpoint struct {
	Reader *ReaderPart
	Writer *WriterPart
	common lock.Lock[CommonPart]
}

// NewEndpoint wires a reader and writer over one Stream. isClient selects
// masking direction (see CommonPart).
func NewEndpoint(isClient bool, compressed NegotiatedCompression, r rng.Rng, s stream.Stream) *Endpoint {
	common := lock.NewMutex(*NewCommonPart(isClient, compressed, r, s))
	return &Endpoint{
		Reader: NewReaderPart(common, isClient, s),
		Writer: NewWriterPart(common),
		common: common,
	}
}

// Split returns independent reader and writer halves over s's two
// directions, sharing one CommonPart behind common's lock — the shape
// §4.G calls for: the writer takes the lock per WriteFrame, the reader
// only when it must observe or mutate connection state (on Close), so
// reads and writes progress independently instead of serializing on every
// byte.
func Split(isClient bool, compressed NegotiatedCompression, r rng.Rng, s stream.Stream) (*ReaderPart, *WriterPart) {
	common := lock.NewMutex(*NewCommonPart(isClient, compressed, r, s))
	return NewReaderPart(common, isClient, s), NewWriterPart(common)
}
