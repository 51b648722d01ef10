package store

import (
	"go.uber.org/atomic"
)

// Logger is the transaction-logging capability injected into a DB at
// construction. Record is invoked on every commit after validation succeeds
// and before effects are installed; returning false vetoes the commit and
// the transaction aborts. The benchmark installs either a no-op variant or
// a verification variant that captures per-worker state.
type Logger interface {
	Record(tx *Transaction) bool
}

// NoopLogger accepts every commit and records nothing.
type NoopLogger struct{}

func (self *NoopLogger) Record(tx *Transaction) bool {
	return true
}

// DB is a transactional, versioned row store with optimistic concurrency
// control. Transactions execute speculatively against private staging
// buffers and are validated at commit time; readers never block writers.
//
// DB also tracks which worker threads are live through an epoch-style
// membership protocol (Activate/Deactivate/Idle). Workers that are merely
// waiting must keep calling Idle so background bookkeeping keeps making
// progress; the membership count bounds what the store may reclaim.
type DB struct {
	logger  Logger
	tables  map[string]*Table
	indexes map[string]Index

	// Commit timestamp clock. Every committed read-write transaction gets
	// a distinct, monotonically increasing write timestamp.
	clock atomic.Uint64

	activeThreads atomic.Uint32
	// Bumped on every Idle call; liveness bookkeeping for epoch advance.
	epochTicks atomic.Uint64

	threadCount uint16
}

func NewDB(logger Logger, threadCount uint16) *DB {
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &DB{
		logger:      logger,
		tables:      make(map[string]*Table),
		indexes:     make(map[string]Index),
		threadCount: threadCount,
	}
}

// Activate registers a worker thread as live.
func (self *DB) Activate(threadID uint16) {
	self.activeThreads.Inc()
}

// Deactivate removes a worker thread from the live set. A worker must
// deactivate before exiting or epoch advance stalls for everyone else.
func (self *DB) Deactivate(threadID uint16) {
	self.activeThreads.Dec()
}

// ActiveThreadCount returns the number of currently registered threads.
func (self *DB) ActiveThreadCount() uint16 {
	return uint16(self.activeThreads.Load())
}

// Idle tells the store that the thread is alive but not executing
// transactions, so epoch bookkeeping can make progress across the wait.
func (self *DB) Idle(threadID uint16) {
	self.epochTicks.Inc()
}

// EpochTicks reports how many idle notifications the store has absorbed.
func (self *DB) EpochTicks() uint64 {
	return self.epochTicks.Load()
}

func (self *DB) CreateTable(name string, dataSize uint64) (*Table, error) {
	if _, ok := self.tables[name]; ok {
		return nil, NewStoreErrorf("table %q already exists", name)
	}
	tbl := newTable(name, dataSize)
	self.tables[name] = tbl
	return tbl, nil
}

func (self *DB) GetTable(name string) *Table {
	return self.tables[name]
}

// CreateHashIndex creates a unique hash index named name over tbl with
// capacity for expectedKeys entries.
func (self *DB) CreateHashIndex(name string, tbl *Table, expectedKeys uint64) (Index, error) {
	if _, ok := self.indexes[name]; ok {
		return nil, NewStoreErrorf("index %q already exists", name)
	}
	idx := newHashIndex(tbl, expectedKeys)
	self.indexes[name] = idx
	return idx, nil
}

// CreateOrderedIndex creates a unique ordered index named name over tbl.
func (self *DB) CreateOrderedIndex(name string, tbl *Table) (Index, error) {
	if _, ok := self.indexes[name]; ok {
		return nil, NewStoreErrorf("index %q already exists", name)
	}
	idx := newOrderedIndex(tbl)
	self.indexes[name] = idx
	return idx, nil
}

func (self *DB) GetIndex(name string) Index {
	return self.indexes[name]
}
