package postgres

import "testing"

func TestStatementsMRUEviction(t *testing.T) {
	var evicted []uint64
	s := NewStatements(2)
	s.Insert(1, Statement{id: 1}, func(stmt Statement) { evicted = append(evicted, stmt.id) })
	s.Insert(2, Statement{id: 2}, func(stmt Statement) { evicted = append(evicted, stmt.id) })
	if _, ok := s.Get(1); !ok {
		t.Fatal("expected hash 1 to be cached")
	}
	// 1 is now MRU; inserting a third entry should evict 2 (the LRU).
	s.Insert(3, Statement{id: 3}, func(stmt Statement) { evicted = append(evicted, stmt.id) })
	if len(evicted) != 1 || evicted[0] != 2 {
		t.Fatalf("evicted = %v, want [2]", evicted)
	}
	if _, ok := s.Get(2); ok {
		t.Fatal("expected hash 2 to have been evicted")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}

func TestStatementsReinsertPromotesExisting(t *testing.T) {
	var evicted []uint64
	s := NewStatements(1)
	s.Insert(1, Statement{id: 1}, func(stmt Statement) { evicted = append(evicted, stmt.id) })
	s.Insert(1, Statement{id: 1, Columns: []Column{{Name: "x"}}}, func(stmt Statement) { evicted = append(evicted, stmt.id) })
	if len(evicted) != 0 {
		t.Fatalf("re-inserting an existing key should not evict, got %v", evicted)
	}
	stmt, ok := s.Get(1)
	if !ok || len(stmt.Columns) != 1 {
		t.Fatalf("expected updated statement with 1 column, got %+v ok=%v", stmt, ok)
	}
}

func TestHashSQLStable(t *testing.T) {
	a := HashSQL("SELECT $1::int")
	b := HashSQL("SELECT $1::int")
	if a != b {
		t.Fatal("HashSQL must be deterministic for identical input")
	}
	if a == HashSQL("SELECT $1::text") {
		t.Fatal("different SQL text should hash differently (barring collision)")
	}
}
