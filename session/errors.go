package session

import "github.com/humb1t/wtx/coreerr"

const pkg = "session"

// Kind enumerates session error kinds.
type Kind string

const (
	KindNotFound Kind = "NotFound"
	KindExpired  Kind = "Expired"
)

// ErrNotFound is returned by Store.Read when no entry exists for a key.
var ErrNotFound = coreerr.New(pkg, string(KindNotFound), "no session for key")

// ErrExpired is returned by Manager.Read when the stored entry's expiry has
// already passed.
var ErrExpired = coreerr.New(pkg, string(KindExpired), "session expired")
