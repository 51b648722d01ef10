package store

import (
	"sync"

	"github.com/tidwall/btree"
)

// Index is a unique mapping from logical keys to physical row ids. Lookups
// run inside a transaction and may return LookupAbort when the index cannot
// produce a consistent answer; callers must abort the whole attempt on that
// verdict and must not treat it as a miss.
type Index interface {
	// Lookup resolves key and, when found, hands (key, value) to visitor.
	// A false return from visitor stops further matches; with a unique
	// index the visitor runs at most once. skipValidation elides
	// commit-time revalidation of the index entry.
	Lookup(tx *Transaction, key uint64, skipValidation bool, visitor func(key, value uint64) bool) LookupResult
	// Insert adds the unique mapping key -> value. The entry becomes
	// permanent only when tx commits; an abort removes it.
	Insert(tx *Transaction, key, value uint64) InsertResult
	// Prefetch hints that key is about to be looked up.
	Prefetch(tx *Transaction, key uint64)
}

// hashIndex is a unique hash index. Entries are installed at insert time;
// the guarding lock is striped away from the hot path by being a plain
// RWMutex, which is uncontended once population finishes.
type hashIndex struct {
	tbl     *Table
	mu      sync.RWMutex
	entries map[uint64]uint64
}

func newHashIndex(tbl *Table, expectedKeys uint64) *hashIndex {
	return &hashIndex{
		tbl:     tbl,
		entries: make(map[uint64]uint64, expectedKeys),
	}
}

func (self *hashIndex) Lookup(tx *Transaction, key uint64, skipValidation bool, visitor func(key, value uint64) bool) LookupResult {
	if tx == nil || !tx.active {
		return LookupAbort
	}
	self.mu.RLock()
	value, ok := self.entries[key]
	self.mu.RUnlock()
	if !ok {
		return LookupNotFound
	}
	if visitor != nil {
		visitor(key, value)
	}
	return LookupFound
}

func (self *hashIndex) Insert(tx *Transaction, key, value uint64) InsertResult {
	if tx == nil || !tx.active {
		return InsertAbort
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.entries[key]; ok {
		return InsertDuplicate
	}
	self.entries[key] = value
	tx.undo = append(tx.undo, func() {
		self.mu.Lock()
		delete(self.entries, key)
		self.mu.Unlock()
	})
	return InsertDone
}

func (self *hashIndex) Prefetch(tx *Transaction, key uint64) {
	self.mu.RLock()
	_ = self.entries[key]
	self.mu.RUnlock()
}

// orderedIndex is a unique ordered index on a B-tree, for workloads that
// want key-ordered resolution. The tree itself is not safe for concurrent
// use, so a RWMutex guards it the same way the hash variant is guarded.
type orderedIndex struct {
	tbl  *Table
	mu   sync.RWMutex
	tree *btree.Map[uint64, uint64]
}

func newOrderedIndex(tbl *Table) *orderedIndex {
	return &orderedIndex{
		tbl:  tbl,
		tree: btree.NewMap[uint64, uint64](32),
	}
}

func (self *orderedIndex) Lookup(tx *Transaction, key uint64, skipValidation bool, visitor func(key, value uint64) bool) LookupResult {
	if tx == nil || !tx.active {
		return LookupAbort
	}
	self.mu.RLock()
	value, ok := self.tree.Get(key)
	self.mu.RUnlock()
	if !ok {
		return LookupNotFound
	}
	if visitor != nil {
		visitor(key, value)
	}
	return LookupFound
}

func (self *orderedIndex) Insert(tx *Transaction, key, value uint64) InsertResult {
	if tx == nil || !tx.active {
		return InsertAbort
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.tree.Get(key); ok {
		return InsertDuplicate
	}
	self.tree.Set(key, value)
	tx.undo = append(tx.undo, func() {
		self.mu.Lock()
		self.tree.Delete(key)
		self.mu.Unlock()
	})
	return InsertDone
}

func (self *orderedIndex) Prefetch(tx *Transaction, key uint64) {
	self.mu.RLock()
	_, _ = self.tree.Get(key)
	self.mu.RUnlock()
}
