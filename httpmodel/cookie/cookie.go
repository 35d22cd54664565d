// Package cookie defines the Set-Cookie attribute set shared by the
// WebSocket handshake and the session manager.
package cookie

import (
	"fmt"
	"strings"
	"time"
)

// SameSite mirrors the three Set-Cookie SameSite values.
type SameSite int

const (
	SameSiteStrict SameSite = iota
	SameSiteLax
	SameSiteNone
)

func (s SameSite) String() string {
	switch s {
	case SameSiteLax:
		return "Lax"
	case SameSiteNone:
		return "None"
	default:
		return "Strict"
	}
}

// Definition is the template a cookie is generated from: everything but the
// per-session value and, for session cookies, the expiry.
type Definition struct {
	Name     string
	Domain   string
	Path     string
	Expire   *time.Time
	MaxAge   *time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite *SameSite
}

// Default returns a locked-down starting point: name "id", path "/",
// HttpOnly+Secure true, SameSite=Strict.
func Default() Definition {
	ss := SameSiteStrict
	return Definition{
		Name:     "id",
		Path:     "/",
		HTTPOnly: true,
		Secure:   true,
		SameSite: &ss,
	}
}

// Render writes the Set-Cookie header value for value under this
// definition.
func (d Definition) Render(value string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s", d.Name, value)
	if d.Domain != "" {
		fmt.Fprintf(&b, "; Domain=%s", d.Domain)
	}
	if d.Path != "" {
		fmt.Fprintf(&b, "; Path=%s", d.Path)
	}
	if d.Expire != nil {
		fmt.Fprintf(&b, "; Expires=%s", d.Expire.UTC().Format(time.RFC1123))
	}
	if d.MaxAge != nil {
		fmt.Fprintf(&b, "; Max-Age=%d", int(d.MaxAge.Seconds()))
	}
	if d.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if d.Secure {
		b.WriteString("; Secure")
	}
	if d.SameSite != nil {
		fmt.Fprintf(&b, "; SameSite=%s", d.SameSite.String())
	}
	return b.String()
}
