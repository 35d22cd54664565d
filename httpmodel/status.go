package httpmodel

// Status is an HTTP status code with its canonical reason phrase.
type Status int

// Status codes used by the redirect constructors and by callers composing
// their own responses. Only the subset the core's redirect/session flows
// need is enumerated; a full IANA registry belongs to a higher-level
// server framework.
const (
	StatusOK                 Status = 200
	StatusNoContent          Status = 204
	StatusMovedPermanently   Status = 301
	StatusFound              Status = 302
	StatusSeeOther           Status = 303
	StatusTemporaryRedirect  Status = 307
	StatusPermanentRedirect  Status = 308
	StatusBadRequest         Status = 400
	StatusUnauthorized       Status = 401
	StatusForbidden          Status = 403
	StatusNotFound           Status = 404
	StatusInternalServerError Status = 500
)

var reasonPhrases = map[Status]string{
	StatusOK:                 "OK",
	StatusNoContent:          "No Content",
	StatusMovedPermanently:   "Moved Permanently",
	StatusFound:              "Found",
	StatusSeeOther:           "See Other",
	StatusTemporaryRedirect:  "Temporary Redirect",
	StatusPermanentRedirect:  "Permanent Redirect",
	StatusBadRequest:         "Bad Request",
	StatusUnauthorized:       "Unauthorized",
	StatusForbidden:          "Forbidden",
	StatusNotFound:           "Not Found",
	StatusInternalServerError: "Internal Server Error",
}

// ReasonPhrase returns the canonical reason phrase for s, or "" if unknown.
func (s Status) ReasonPhrase() string { return reasonPhrases[s] }

// IsRedirect reports whether s is in the 3xx range (300–399), which
// includes every code this package's Redirect constructors produce.
func (s Status) IsRedirect() bool { return s >= 300 && s < 400 }
