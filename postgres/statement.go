package postgres

import (
	"container/list"
	"hash/fnv"
	"strconv"
)

// Column describes one RowDescription field: its name and its reported
// type OID.
type Column struct {
	Name    string
	TypeOID uint32
}

// Statement is a cached prepared statement: its wire name, its
// bind parameter type OIDs, and the columns its result rows carry.
type Statement struct {
	id         uint64
	Columns    []Column
	ParamTypes []uint32
}

// Name returns the statement's wire name, derived from its cache key so
// it is stable across Prepare calls for the same SQL text.
func (s Statement) Name() string { return stmtName(s.id) }

func stmtName(id uint64) string { return "wtx_" + strconv.FormatUint(id, 10) }

// HashSQL returns the fnv1a64 hash of sql, used as both the cache key and
// the numeric suffix of the statement's wire name.
func HashSQL(sql string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sql))
	return h.Sum64()
}

// Statements is an MRU-eviction cache of prepared Statements keyed by
// fnv1a64(sql), bounded at capacity. Eviction order is tracked with a
// container/list the way an LRU/MRU cache is conventionally built in Go.
type Statements struct {
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List // front = most recently used
}

type statementEntry struct {
	hash uint64
	stmt Statement
}

// NewStatements returns an empty cache bounded at capacity. A capacity of
// 0 or less leaves the cache unbounded: it never evicts.
func NewStatements(capacity int) *Statements {
	return &Statements{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached statement for hash, promoting it to
// most-recently-used.
func (s *Statements) Get(hash uint64) (Statement, bool) {
	el, ok := s.entries[hash]
	if !ok {
		return Statement{}, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*statementEntry).stmt, true
}

// Len reports how many statements are cached.
func (s *Statements) Len() int { return len(s.entries) }

// Insert adds stmt under hash, evicting the least-recently-used entry
// first if the cache is at capacity. onEvict is called with the evicted
// statement so the caller can send Close+Sync for it before it's dropped.
func (s *Statements) Insert(hash uint64, stmt Statement, onEvict func(Statement)) {
	if el, ok := s.entries[hash]; ok {
		el.Value.(*statementEntry).stmt = stmt
		s.order.MoveToFront(el)
		return
	}
	if s.capacity > 0 && len(s.entries) >= s.capacity {
		s.evictOldest(onEvict)
	}
	el := s.order.PushFront(&statementEntry{hash: hash, stmt: stmt})
	s.entries[hash] = el
}

func (s *Statements) evictOldest(onEvict func(Statement)) {
	back := s.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*statementEntry)
	s.order.Remove(back)
	delete(s.entries, entry.hash)
	if onEvict != nil {
		onEvict(entry.stmt)
	}
}

// Clear drops every cached statement without emitting Close messages; used
// when the connection is known to have been dropped already.
func (s *Statements) Clear() {
	s.entries = make(map[uint64]*list.Element)
	s.order.Init()
}
