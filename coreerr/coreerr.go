// Package coreerr defines the shared error shape used across the toolkit's
// protocol packages. Each package (buffer, httpmodel, postgres, websocket)
// declares its own Kind enum and wraps it in Error, keeping one small
// errors package per concern rather than one global sum type.
package coreerr

import "fmt"

// Coded is implemented by every package-local error type so that callers can
// branch on a stable, package-qualified string without importing every
// protocol package's concrete error type.
type Coded interface {
	error
	Kind() string
}

// Error wraps an underlying cause with a package-qualified kind string, e.g.
// "postgres.ClosedConnection" or "websocket.ConnectionClosed".
type Error struct {
	Pkg   string
	Kind_ string
	Msg   string
	Err   error
}

// New builds an Error with no wrapped cause.
func New(pkg, kind, msg string) *Error {
	return &Error{Pkg: pkg, Kind_: kind, Msg: msg}
}

// Wrap builds an Error that carries an underlying cause, preserved for
// errors.Is/errors.As via Unwrap.
func Wrap(pkg, kind string, err error) *Error {
	return &Error{Pkg: pkg, Kind_: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %s: %v", e.Pkg, e.Kind_, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Pkg, e.Kind_, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Pkg, e.Kind_, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Pkg, e.Kind_)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind returns the package-qualified kind, e.g. "postgres.NoRecord".
func (e *Error) Kind() string { return e.Pkg + "." + e.Kind_ }
