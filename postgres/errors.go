package postgres

import "github.com/humb1t/wtx/coreerr"

const pkg = "postgres"

// Kind enumerates postgres error kinds.
type Kind string

const (
	KindUnexpectedDatabaseMessage   Kind = "UnexpectedDatabaseMessage"
	KindUnexpectedBufferState       Kind = "UnexpectedBufferState"
	KindUnexpectedValueFromBytes    Kind = "UnexpectedValueFromBytes"
	KindNoInnerValue                Kind = "NoInnerValue"
	KindServerDoesNotSupportEncrypt Kind = "ServerDoesNotSupportEncryption"
	KindNoRecord                    Kind = "NoRecord"
	KindTransactionAlreadyOpen      Kind = "TransactionAlreadyOpen"
	KindClosedConnection            Kind = "ClosedConnection"
	KindSaslVerificationFailed      Kind = "SaslVerificationFailed"
	KindInvalidEndpointBinding      Kind = "InvalidEndpointBinding"
)

func newErr(kind Kind, msg string) error { return coreerr.New(pkg, string(kind), msg) }

func wrapErr(kind Kind, err error) error { return coreerr.Wrap(pkg, string(kind), err) }

// ErrUnexpectedBufferState is returned when the network buffer's zone
// indices cannot accommodate a fetched message.
var ErrUnexpectedBufferState = newErr(KindUnexpectedBufferState, "unexpected buffer state")

// ErrNoRecord is returned by FetchWithStmt when the query produced zero rows.
var ErrNoRecord = newErr(KindNoRecord, "statement produced no record")

// ErrClosedConnection is returned by every Executor operation once the
// connection has been latched closed by a prior fatal error.
var ErrClosedConnection = newErr(KindClosedConnection, "connection is closed")

// ErrTransactionAlreadyOpen is returned by Begin when the executor already
// has an open transaction.
var ErrTransactionAlreadyOpen = newErr(KindTransactionAlreadyOpen, "transaction already open")

// ErrServerDoesNotSupportEncryption is returned by ConnectEncrypted when the
// server's SSLRequest reply byte is not 'S'.
var ErrServerDoesNotSupportEncryption = newErr(KindServerDoesNotSupportEncrypt, "server does not support encryption")

// ErrSaslVerificationFailed is returned when the server's SCRAM signature
// does not match the client's expectation.
var ErrSaslVerificationFailed = newErr(KindSaslVerificationFailed, "sasl server signature verification failed")

// UnexpectedDatabaseMessageError reports a backend message tag the caller
// was not prepared to receive at that point in the protocol.
type UnexpectedDatabaseMessageError struct {
	Received byte
}

func (e *UnexpectedDatabaseMessageError) Error() string {
	return "postgres: unexpected database message: " + string(rune(e.Received))
}

func (e *UnexpectedDatabaseMessageError) Kind() string {
	return pkg + "." + string(KindUnexpectedDatabaseMessage)
}

// NoInnerValueError reports a missing comma-separated field while parsing a
// SASL-Continue or SASL-Final payload.
type NoInnerValueError struct {
	Field string
}

func (e *NoInnerValueError) Error() string { return "postgres: missing field: " + e.Field }

func (e *NoInnerValueError) Kind() string { return pkg + "." + string(KindNoInnerValue) }
