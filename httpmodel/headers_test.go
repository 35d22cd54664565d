package httpmodel

import "testing"

func TestPushFromIterRoundTrip(t *testing.T) {
	h := New()
	if err := h.PushFromIter([]byte("name"), [][]byte{[]byte("value0"), []byte("_value1")}, false, false); err != nil {
		t.Fatal(err)
	}
	got, ok := h.GetByIdx(0)
	if !ok {
		t.Fatal("expected header at idx 0")
	}
	if string(got.Value) != "value0_value1" {
		t.Errorf("value = %q", got.Value)
	}
	got2, ok := h.GetByName([]byte("name"))
	if !ok || string(got2.Value) != "value0_value1" {
		t.Errorf("get_by_name mismatch: %+v", got2)
	}
}

func TestTrailerPromotionToMixed(t *testing.T) {
	// Pushing (h1, trailer=false), (h2, trailer=true), (h3, trailer=false)
	// must settle on Mixed.
	h := New()
	must(t, h.PushFromIter([]byte("h1"), [][]byte{[]byte("v1")}, false, false))
	must(t, h.PushFromIter([]byte("h2"), [][]byte{[]byte("v2")}, false, true))
	must(t, h.PushFromIter([]byte("h3"), [][]byte{[]byte("v3")}, false, false))
	if !h.Trailers().Mixed() {
		t.Fatalf("expected Mixed, got %+v", h.Trailers())
	}
}

func TestTrailerTailTopology(t *testing.T) {
	h := New()
	must(t, h.PushFromIter([]byte("h1"), nil, false, false))
	must(t, h.PushFromIter([]byte("h2"), nil, false, false))
	must(t, h.PushFromIter([]byte("h3"), nil, false, true))
	must(t, h.PushFromIter([]byte("h4"), nil, false, true))
	k, ok := h.Trailers().Tail()
	if !ok || k != 2 {
		t.Fatalf("expected Tail(2), got tail=%d ok=%v", k, ok)
	}
}

func TestTrailerNoneWhenNeverPushed(t *testing.T) {
	h := New()
	must(t, h.PushFromIter([]byte("h1"), nil, false, false))
	if !h.Trailers().None() {
		t.Fatalf("expected None, got %+v", h.Trailers())
	}
}

func TestPopOnEmptyIsNoop(t *testing.T) {
	h := New()
	if h.Pop() {
		t.Fatal("Pop on empty Headers must return false")
	}
	if h.HeadersLen() != 0 || h.BytesLen() != 0 {
		t.Fatal("Pop on empty Headers must not mutate")
	}
}

func TestPopDoesNotRecomputeTrailers(t *testing.T) {
	// Trailers() can over-report after a Pop because it is not recomputed.
	h := New()
	must(t, h.PushFromIter([]byte("h1"), nil, false, true))
	if !h.Pop() {
		t.Fatal("expected Pop to succeed")
	}
	if h.HeadersLen() != 0 {
		t.Fatal("expected headers to be empty after popping the only header")
	}
	if h.Trailers().None() {
		t.Fatal("expected over-reported trailer topology to survive Pop, per documented contract")
	}
}

func TestIterCountMatchesHeadersLen(t *testing.T) {
	h := New()
	must(t, h.PushFromIter([]byte("a"), [][]byte{[]byte("1")}, false, false))
	must(t, h.PushFromIter([]byte("b"), [][]byte{[]byte("2")}, false, false))
	if got, want := len(h.Iter()), h.HeadersLen(); got != want {
		t.Errorf("iter count = %d, headers_len = %d", got, want)
	}
}

func TestGetManyByName(t *testing.T) {
	h := New()
	must(t, h.PushFromIter([]byte("name0"), nil, false, false))
	found := h.GetManyByName([][]byte{[]byte("name0"), []byte("name1")})
	if found[0] == nil {
		t.Error("expected name0 to be found")
	}
	if found[1] != nil {
		t.Error("expected name1 to be absent")
	}
}

func TestClearResetsAllFields(t *testing.T) {
	h := New()
	must(t, h.PushFromIter([]byte("name"), [][]byte{[]byte("value")}, false, false))
	h.Clear()
	if h.BytesLen() != 0 || h.HeadersLen() != 0 || !h.Trailers().None() {
		t.Fatal("Clear must reset bytes, parts and trailers")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
