package session

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/humb1t/wtx/httpmodel/cookie"
	"github.com/humb1t/wtx/rng"
)

// Manager wraps a cookie template and a secret key. The key is stored on
// the Manager but Issue and Read do not use it: cookie values carry the
// base64url-encoded session Key unsigned. It does not own a Store
// directly — Store is parameterized per call so one Manager can front any
// Store[S] the caller supplies, keeping the session layer generic over its
// backing state type.
type Manager struct {
	cookieDef          cookie.Definition
	inspectionInterval time.Duration
	key                Key
}

// CookieName returns the session cookie's name.
func (m *Manager) CookieName() string { return m.cookieDef.Name }

// Issue creates a fresh session key, writes state into store with the
// configured lifetime, and returns the Set-Cookie header value to send to
// the client.
func Issue[S any](ctx context.Context, m *Manager, r rng.Rng, store Store[S], state S, lifetime time.Duration) (string, error) {
	var key Key
	r.FillSlice(key[:])
	expire := time.Now().Add(lifetime)
	if err := store.Write(ctx, key, state, expire); err != nil {
		return "", err
	}
	def := m.cookieDef
	def.MaxAge = &lifetime
	return def.Render(encodeKey(key)), nil
}

// Read decodes a cookie value back into a key and loads its state from
// store, returning ErrExpired if the stored expiry has passed.
func Read[S any](ctx context.Context, store Store[S], cookieValue string) (S, error) {
	var zero S
	key, err := decodeKey(cookieValue)
	if err != nil {
		return zero, err
	}
	state, expire, err := store.Read(ctx, key)
	if err != nil {
		return zero, err
	}
	if !expire.IsZero() && time.Now().After(expire) {
		return zero, ErrExpired
	}
	return state, nil
}

// SweepExpired loops calling store.DeleteExpired at the builder's configured
// inspection interval until ctx is cancelled. The caller is responsible for
// running it in its own goroutine (or skipping it entirely when the store
// self-expires via e.g. a database TTL).
func (m *Manager) SweepExpired(ctx context.Context, deleteExpired func(context.Context) error) error {
	ticker := time.NewTicker(m.inspectionInterval)
	defer ticker.Stop()
	for {
		if err := deleteExpired(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func encodeKey(k Key) string { return base64.RawURLEncoding.EncodeToString(k[:]) }

func decodeKey(s string) (Key, error) {
	var k Key
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return k, err
	}
	if len(b) != len(k) {
		return k, ErrNotFound
	}
	copy(k[:], b)
	return k, nil
}
