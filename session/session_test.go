package session

import (
	"context"
	"testing"
	"time"

	"github.com/humb1t/wtx/rng"
)

type userState struct {
	UserID int
}

func TestIssueAndRead(t *testing.T) {
	store := NewMemoryStore[userState]()
	mgr := NewBuilder().Name("sid").BuildWithKey(Key{})
	r := rng.NewXorshift64(42)

	setCookie, err := Issue(context.Background(), mgr, r, store, userState{UserID: 7}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(setCookie) == 0 {
		t.Fatal("expected non-empty Set-Cookie value")
	}

	value := extractCookieValue(t, setCookie, "sid")
	got, err := Read(context.Background(), store, value)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != 7 {
		t.Errorf("UserID = %d, want 7", got.UserID)
	}
}

func TestReadExpiredSession(t *testing.T) {
	store := NewMemoryStore[userState]()
	mgr := NewBuilder().BuildWithKey(Key{})
	r := rng.NewXorshift64(1)

	setCookie, err := Issue(context.Background(), mgr, r, store, userState{UserID: 1}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	value := extractCookieValue(t, setCookie, mgr.CookieName())
	if _, err := Read(context.Background(), store, value); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestDeleteExpiredSweep(t *testing.T) {
	store := NewMemoryStore[userState]()
	ctx := context.Background()
	var key Key
	rng.NewXorshift64(9).FillSlice(key[:])
	if err := store.Write(ctx, key, userState{UserID: 2}, time.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteExpired(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Count() != 0 {
		t.Fatalf("expected expired entry to be swept, count = %d", store.Count())
	}
}

func extractCookieValue(t *testing.T, setCookie, name string) string {
	t.Helper()
	prefix := name + "="
	for i := 0; i+len(prefix) <= len(setCookie); i++ {
		if setCookie[i:i+len(prefix)] == prefix {
			rest := setCookie[i+len(prefix):]
			for j, c := range rest {
				if c == ';' {
					return rest[:j]
				}
			}
			return rest
		}
	}
	t.Fatalf("cookie %q not found in %q", name, setCookie)
	return ""
}
