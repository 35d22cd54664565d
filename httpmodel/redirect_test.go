package httpmodel

import "testing"

func TestPermanentRedirect(t *testing.T) {
	rrb := EmptyResponse()
	if err := Permanent("/some/path").Apply(rrb); err != nil {
		t.Fatal(err)
	}
	if rrb.Status != StatusPermanentRedirect {
		t.Errorf("status = %d, want 308", rrb.Status)
	}
	loc, ok := rrb.Headers.GetByName([]byte("location"))
	if !ok || string(loc.Value) != "/some/path" {
		t.Errorf("location = %+v", loc)
	}
	if len(rrb.Body) != 0 {
		t.Errorf("expected empty body, got %q", rrb.Body)
	}
}
