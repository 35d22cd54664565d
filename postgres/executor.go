// Package postgres implements a PostgreSQL frontend/backend protocol v3.0
// client: wire codec, an Executor state machine driving one connection,
// a prepared-statement cache, and a transaction manager.
package postgres

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/google/uuid"
	"github.com/humb1t/wtx/postgres/internal/auth"
	"github.com/humb1t/wtx/postgres/internal/protocol"
	"github.com/humb1t/wtx/rng"
	"github.com/humb1t/wtx/stream"
)

// Executor drives one PostgreSQL connection: startup, authentication,
// extended-query prepare/bind/execute, and transactions, over a single
// Stream with one ExecutorBuffer.
type Executor struct {
	eb       *ExecutorBuffer
	stream   stream.Stream
	isClosed bool
	connID   uuid.UUID // correlation ID for this connection's log lines

	backendPID       uint32
	backendSecretKey uint32
	parameters       map[string]string
	txStatus         byte // last ReadyForQuery status byte: 0 (unset), 'I', 'T', or 'E'
}

// ConnID returns the correlation ID generated for this connection at
// Connect/ConnectEncrypted time, included in every log line this package
// emits for the connection.
func (ex *Executor) ConnID() uuid.UUID { return ex.connID }

// Connect performs startup and authentication over an unencrypted stream.
func Connect(ctx context.Context, cfg *Config, eb *ExecutorBuffer, r rng.Rng, s stream.Stream) (*Executor, error) {
	eb.Clear()
	ex := &Executor{eb: eb, stream: s, connID: uuid.New()}
	if err := ex.doConnect(ctx, cfg, r, nil); err != nil {
		return nil, err
	}
	return ex, nil
}

// ConnectEncrypted first negotiates SSLRequest on initialStream; if the
// server supports encryption (a single 'S' reply byte), upgrade is called
// to produce the TLS-wrapped Stream to continue on. Any other reply byte
// is ServerDoesNotSupportEncryption.
func ConnectEncrypted(ctx context.Context, cfg *Config, eb *ExecutorBuffer, r rng.Rng, initialStream stream.Stream, upgrade func(stream.Stream) (stream.TLSStream, error)) (*Executor, error) {
	eb.Clear()
	enc := &protocol.Encoder{}
	enc.SSLRequest()
	if err := initialStream.WriteAll(ctx, enc.Bytes()); err != nil {
		return nil, err
	}
	var reply [1]byte
	if _, err := initialStream.Read(ctx, reply[:]); err != nil {
		return nil, err
	}
	if reply[0] != 'S' {
		return nil, ErrServerDoesNotSupportEncryption
	}
	tlsStream, err := upgrade(initialStream)
	if err != nil {
		return nil, err
	}
	tlsServerEndPoint, err := tlsStream.TLSServerEndPoint()
	if err != nil {
		return nil, err
	}
	ex := &Executor{eb: eb, stream: tlsStream, connID: uuid.New()}
	if err := ex.doConnect(ctx, cfg, r, tlsServerEndPoint); err != nil {
		return nil, err
	}
	return ex, nil
}

func (ex *Executor) doConnect(ctx context.Context, cfg *Config, r rng.Rng, tlsServerEndPoint []byte) error {
	if err := ex.sendStartupMessage(ctx, cfg); err != nil {
		return err
	}
	if err := ex.manageAuthentication(ctx, cfg, r, tlsServerEndPoint); err != nil {
		return err
	}
	if err := ex.readAfterAuthenticationData(ctx); err != nil {
		return err
	}
	slog.Debug("postgres: connected", "conn", ex.connID, "backend_pid", ex.backendPID)
	return nil
}

func (ex *Executor) sendStartupMessage(ctx context.Context, cfg *Config) error {
	enc := &protocol.Encoder{}
	enc.StartupMessage(cfg.startupParams())
	return ex.stream.WriteAll(ctx, enc.Bytes())
}

// manageAuthentication dispatches on the first AuthenticationRequest and
// drives whichever method the server selected to completion.
func (ex *Executor) manageAuthentication(ctx context.Context, cfg *Config, r rng.Rng, tlsServerEndPoint []byte) error {
	msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
	if err != nil {
		return err
	}
	if msg.Kind != protocol.KindAuthentication {
		return ex.unexpected(msg)
	}
	switch msg.Auth.Kind {
	case protocol.AuthOk:
		return nil
	case protocol.AuthMD5Password:
		return ex.authenticateMD5(ctx, cfg, msg.Auth.MD5Salt)
	case protocol.AuthSasl:
		return ex.authenticateScramSHA256(ctx, cfg, r, tlsServerEndPoint)
	default:
		return ex.unexpected(msg)
	}
}

func (ex *Executor) authenticateMD5(ctx context.Context, cfg *Config, salt [4]byte) error {
	enc := &protocol.Encoder{}
	enc.PasswordMessage(md5PasswordHash(cfg.User, cfg.Password, salt))
	if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
		return err
	}
	msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
	if err != nil {
		return err
	}
	if msg.Kind != protocol.KindAuthentication || msg.Auth.Kind != protocol.AuthOk {
		return ex.unexpected(msg)
	}
	return nil
}

// authenticateScramSHA256 drives SCRAM-SHA-256 to completion: client-first,
// server-first (SaslContinue), client-final with channel binding, and
// server signature verification (SaslFinal).
func (ex *Executor) authenticateScramSHA256(ctx context.Context, cfg *Config, r rng.Rng, tlsServerEndPoint []byte) error {
	var nonceBytes [24]byte
	r.FillSlice(nonceBytes[:])
	client := auth.NewScramClient(cfg.User, cfg.Password, scramNonceString(nonceBytes[:]))

	enc := &protocol.Encoder{}
	enc.SASLInitialResponse("SCRAM-SHA-256", client.ClientFirstMessage())
	if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
		return err
	}

	msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
	if err != nil {
		return err
	}
	if msg.Kind != protocol.KindAuthentication || msg.Auth.Kind != protocol.AuthSaslContinue {
		return ex.unexpected(msg)
	}
	salt, err := base64.StdEncoding.DecodeString(string(msg.Auth.Salt))
	if err != nil {
		ex.isClosed = true
		return err
	}
	clientFinal, err := client.ClientFinalMessage(string(msg.Auth.Nonce), salt, int(msg.Auth.Iterations), tlsServerEndPoint)
	if err != nil {
		ex.isClosed = true
		return err
	}

	enc.Reset()
	enc.SASLResponse(clientFinal)
	if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
		return err
	}

	msg, err = fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
	if err != nil {
		return err
	}
	if msg.Kind != protocol.KindAuthentication || msg.Auth.Kind != protocol.AuthSaslFinal {
		return ex.unexpected(msg)
	}
	if err := client.VerifyServerSignature(msg.Auth.Verifier); err != nil {
		ex.isClosed = true
		return ErrSaslVerificationFailed
	}

	msg, err = fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
	if err != nil {
		return err
	}
	if msg.Kind != protocol.KindAuthentication || msg.Auth.Kind != protocol.AuthOk {
		return ex.unexpected(msg)
	}
	return nil
}

// readAfterAuthenticationData drains BackendKeyData/ParameterStatus
// messages until ReadyForQuery. Both are folded into ex by observe as they
// pass through fetchMsgFromStream.
func (ex *Executor) readAfterAuthenticationData(ctx context.Context) error {
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return err
		}
		switch msg.Kind {
		case protocol.KindReadyForQuery:
			return nil
		case protocol.KindBackendKeyData, protocol.KindParameterStatus:
		default:
			return ex.unexpected(msg)
		}
	}
}

func (ex *Executor) unexpected(msg protocol.Message) error {
	ex.isClosed = true
	slog.Debug("postgres: unexpected message, closing", "conn", ex.connID, "tag", string(msg.Tag))
	return &UnexpectedDatabaseMessageError{Received: msg.Tag}
}

// observe folds BackendKeyData, ParameterStatus, and ReadyForQuery's
// transaction status byte into ex's retained connection state. Called by
// fetchMsgFromStream for every message read on this connection, so
// ParameterStatus pushed asynchronously after startup (e.g. following a SET
// command) and every subsequent ReadyForQuery are captured too, not just
// the ones seen during the startup handshake.
func (ex *Executor) observe(msg protocol.Message) {
	switch msg.Kind {
	case protocol.KindBackendKeyData:
		ex.backendPID = msg.BackendPID
		ex.backendSecretKey = msg.BackendSecretKey
	case protocol.KindParameterStatus:
		if ex.parameters == nil {
			ex.parameters = make(map[string]string)
		}
		ex.parameters[msg.ParameterName] = msg.ParameterValue
	case protocol.KindReadyForQuery:
		ex.txStatus = msg.TxStatus
	}
}

// BackendPID returns the server process ID from BackendKeyData, for use
// with CancelRequest. Zero before the startup handshake completes.
func (ex *Executor) BackendPID() uint32 { return ex.backendPID }

// BackendSecretKey returns the secret key from BackendKeyData, for use with
// CancelRequest. Zero before the startup handshake completes.
func (ex *Executor) BackendSecretKey() uint32 { return ex.backendSecretKey }

// Parameter returns the most recently observed value for a server
// parameter pushed via ParameterStatus (e.g. "server_version",
// "TimeZone"), and whether it has been observed at all.
func (ex *Executor) Parameter(name string) (string, bool) {
	v, ok := ex.parameters[name]
	return v, ok
}

// TransactionStatus returns the status byte from the most recently
// observed ReadyForQuery: 'I' (idle), 'T' (in a transaction block), or 'E'
// (in a failed transaction block). Zero before the first ReadyForQuery.
func (ex *Executor) TransactionStatus() byte { return ex.txStatus }

// InTransaction reports whether the connection is currently inside a
// transaction block, open or failed, per the wire-reported status rather
// than any client-side bookkeeping.
func (ex *Executor) InTransaction() bool {
	return ex.txStatus == 'T' || ex.txStatus == 'E'
}

func (ex *Executor) checkOpen() error {
	if ex.isClosed {
		return ErrClosedConnection
	}
	return nil
}

// scramNonceString renders raw nonce bytes the same printable-ASCII
// alphabet SCRAM implementations conventionally use, via base64 so no
// comma or NUL byte can appear inside the nonce field.
func scramNonceString(b []byte) string { return base64RawURL(b) }
