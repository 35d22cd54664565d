package websocket

import "github.com/humb1t/wtx/coreerr"

const pkg = "websocket"

// Kind enumerates websocket error kinds.
type Kind string

const (
	KindProtocolError     Kind = "ProtocolError"
	KindConnectionClosed  Kind = "ConnectionClosed"
	KindUnexpectedMessage Kind = "UnexpectedMessage"
)

func errf(kind Kind, msg string) error { return coreerr.New(pkg, string(kind), msg) }

// ErrConnectionClosed is returned by any operation attempted after the
// connection has transitioned to Closing or Closed.
var ErrConnectionClosed = errf(KindConnectionClosed, "connection closed")

// ErrProtocolError marks a frame that violates the framing rules: reserved
// opcode, RSV2/RSV3 set, mask bit disagreeing with role, an oversized
// control frame, or a data opcode received before the prior fragment
// sequence reached FIN.
var ErrProtocolError = errf(KindProtocolError, "protocol error")
