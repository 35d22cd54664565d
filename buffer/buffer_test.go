package buffer

import "testing"

func TestSetIndicesInvariant(t *testing.T) {
	p, err := WithCapacity(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ExpandFollowing(10); err != nil {
		t.Fatal(err)
	}
	if err := p.SetIndices(0, 4, 6); err != nil {
		t.Fatal(err)
	}
	if got, want := p.AntecedentEnd(), 0; got != want {
		t.Errorf("antecedentEnd = %d, want %d", got, want)
	}
	if got, want := p.CurrentEnd(), 4; got != want {
		t.Errorf("currentEnd = %d, want %d", got, want)
	}
	if got, want := p.FollowingEnd(), 10; got != want {
		t.Errorf("followingEnd = %d, want %d", got, want)
	}
}

func TestSetIndicesOverlappingBoundsRejected(t *testing.T) {
	p, err := WithCapacity(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ExpandFollowing(4); err != nil {
		t.Fatal(err)
	}
	if err := p.SetIndices(0, 2, 2); err != nil {
		t.Fatal(err)
	}
	before := [3]int{p.AntecedentEnd(), p.CurrentEnd(), p.FollowingEnd()}

	// A negative following length puts the following end before the
	// current end, which is out of order.
	err = p.SetIndices(0, 3, -1)
	if err == nil {
		t.Fatal("expected UnexpectedBufferState for overlapping bounds")
	}
	after := [3]int{p.AntecedentEnd(), p.CurrentEnd(), p.FollowingEnd()}
	if before != after {
		t.Errorf("buffer mutated on rejected SetIndices: before=%v after=%v", before, after)
	}
}

func TestClearIfFollowingIsEmptyCompactsLazily(t *testing.T) {
	p, err := WithCapacity(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ExpandFollowing(8); err != nil {
		t.Fatal(err)
	}
	if err := p.SetIndices(0, 8, 0); err != nil {
		t.Fatal(err)
	}
	cur := p.Current()
	p.ClearIfFollowingIsEmpty()
	if p.AntecedentEnd() != 0 || p.CurrentEnd() != 0 || p.FollowingEnd() != 0 {
		t.Fatal("expected full reclaim when following zone is empty")
	}
	_ = cur // slice handed out earlier remains a valid read of the old backing array.

	if err := p.ExpandFollowing(4); err != nil {
		t.Fatal(err)
	}
	if err := p.SetIndices(0, 2, 2); err != nil {
		t.Fatal(err)
	}
	p.ClearIfFollowingIsEmpty()
	if p.CurrentEnd() != 2 {
		t.Errorf("expected no reclaim while following zone is non-empty, currentEnd = %d", p.CurrentEnd())
	}
}

func TestPipelinedFetchFitsInOneRead(t *testing.T) {
	// Two concatenated 5-byte "messages" arrive in a single network read.
	p, err := WithCapacity(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ExpandFollowing(10); err != nil {
		t.Fatal(err)
	}
	copy(p.FollowingTrailMut(), []byte("HELLOWORLD"))

	if err := p.SetIndices(0, 5, 5); err != nil {
		t.Fatal(err)
	}
	if got, want := string(p.Current()), "HELLO"; got != want {
		t.Fatalf("first message = %q, want %q", got, want)
	}

	if err := p.SetIndices(p.CurrentEnd(), 5, 0); err != nil {
		t.Fatal(err)
	}
	if got, want := string(p.Current()), "WORLD"; got != want {
		t.Fatalf("second message = %q, want %q", got, want)
	}
}

func TestReserveNeverShrinks(t *testing.T) {
	p := New()
	if err := p.Reserve(32); err != nil {
		t.Fatal(err)
	}
	capAfterFirst := p.Capacity()
	if err := p.Reserve(1); err != nil {
		t.Fatal(err)
	}
	if p.Capacity() < capAfterFirst {
		t.Fatalf("capacity shrank: %d -> %d", capAfterFirst, p.Capacity())
	}
}
