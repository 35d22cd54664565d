package session

import (
	"time"

	"github.com/humb1t/wtx/httpmodel/cookie"
	"github.com/humb1t/wtx/rng"
)

// Builder holds the default and optional parameters used to construct a
// Manager.
type Builder struct {
	cookieDef          cookie.Definition
	inspectionInterval time.Duration
}

// NewBuilder returns a Builder with sensible defaults: cookie name "id",
// path "/", HttpOnly+Secure, SameSite=Strict, and a 30-minute expiry sweep
// interval.
func NewBuilder() *Builder {
	return &Builder{
		cookieDef:          cookie.Default(),
		inspectionInterval: 30 * time.Minute,
	}
}

// Domain sets the host the cookie will be sent to.
func (b *Builder) Domain(domain string) *Builder { b.cookieDef.Domain = domain; return b }

// Expires sets the cookie's absolute expiry as an HTTP-date timestamp.
func (b *Builder) Expires(t time.Time) *Builder { b.cookieDef.Expire = &t; return b }

// HTTPOnly forbids JavaScript from accessing the cookie when true.
func (b *Builder) HTTPOnly(v bool) *Builder { b.cookieDef.HTTPOnly = v; return b }

// InspectionInterval sets how often the background sweep goroutine deletes
// expired sessions.
func (b *Builder) InspectionInterval(d time.Duration) *Builder { b.inspectionInterval = d; return b }

// Name sets the cookie name.
func (b *Builder) Name(name string) *Builder { b.cookieDef.Name = name; return b }

// MaxAge sets the cookie's relative lifetime.
func (b *Builder) MaxAge(d time.Duration) *Builder { b.cookieDef.MaxAge = &d; return b }

// Path sets the URL path that must be present for the browser to send the
// cookie.
func (b *Builder) Path(path string) *Builder { b.cookieDef.Path = path; return b }

// SameSite controls cross-site cookie delivery.
func (b *Builder) SameSite(s cookie.SameSite) *Builder { b.cookieDef.SameSite = &s; return b }

// Secure restricts the cookie to https requests when true.
func (b *Builder) Secure(v bool) *Builder { b.cookieDef.Secure = v; return b }

// BuildGeneratingKey draws a fresh 32-byte key from rng and delegates to
// BuildWithKey.
func (b *Builder) BuildGeneratingKey(r rng.Rng) (Key, *Manager) {
	var key Key
	r.FillSlice(key[:])
	return key, b.BuildWithKey(key)
}

// BuildWithKey constructs a Manager holding the given secret key. Callers
// are responsible for running Manager.SweepExpired in a background
// goroutine (or ignoring it when the store self-expires, e.g. via a
// database TTL) — Go has no implicit background-task spawning, so nothing
// starts the sweep loop on the caller's behalf.
func (b *Builder) BuildWithKey(key Key) *Manager {
	return &Manager{
		cookieDef:          b.cookieDef,
		inspectionInterval: b.inspectionInterval,
		key:                key,
	}
}
