package store

import (
	"sort"
)

type readEntry struct {
	tbl   *Table
	rowID uint64
	wts   uint64
}

type writeEntry struct {
	tbl   *Table
	rowID uint64
	buf   []byte
}

// Transaction is one optimistic transaction against a DB. Reads record the
// write timestamp of every version they observe; writes stage private
// copies. Commit locks the writeset, revalidates the readset and installs
// the staged copies under a fresh timestamp, or aborts leaving no effect.
//
// A Transaction belongs to one worker thread and is reused across attempts:
// Begin resets all speculative state.
type Transaction struct {
	db       *DB
	threadID uint16

	active   bool
	peekOnly bool

	readSet  []readEntry
	writeSet []writeEntry
	// Rollback actions for structural effects staged before commit (row
	// allocations, index entries). Run in reverse on abort, discarded on
	// commit.
	undo []func()
}

func NewTransaction(db *DB, threadID uint16) *Transaction {
	return &Transaction{
		db:       db,
		threadID: threadID,
	}
}

func (self *Transaction) ThreadID() uint16 {
	return self.threadID
}

func (self *Transaction) PeekOnly() bool {
	return self.peekOnly
}

// Begin starts a new attempt. peekOnly selects snapshot mode: reads will not
// register readset entries and commit validates nothing. A false return
// means the attempt could not start and the caller should retry.
func (self *Transaction) Begin(peekOnly bool) bool {
	if self.active {
		return false
	}
	self.active = true
	self.peekOnly = peekOnly
	self.readSet = self.readSet[:0]
	self.writeSet = self.writeSet[:0]
	self.undo = self.undo[:0]
	return true
}

// Abort discards every staged effect, including rows allocated and index
// entries installed during the attempt.
func (self *Transaction) Abort() {
	self.active = false
	for i := len(self.undo) - 1; i >= 0; i-- {
		self.undo[i]()
	}
	self.undo = self.undo[:0]
	self.readSet = self.readSet[:0]
	self.writeSet = self.writeSet[:0]
}

// Commit validates and installs the transaction. It returns false on any
// abort, with the reason in *result. On a true return *result is always
// Committed.
func (self *Transaction) Commit(result *CommitResult) bool {
	if !self.active {
		*result = AbortedByValidation
		return false
	}

	if self.peekOnly || len(self.writeSet) == 0 {
		// Nothing to validate or install beyond readset stability.
		if !self.validateReads(nil) {
			self.Abort()
			*result = AbortedByValidation
			return false
		}
		if !self.db.logger.Record(self) {
			self.Abort()
			*result = AbortedByLogger
			return false
		}
		self.active = false
		self.undo = self.undo[:0]
		*result = Committed
		return true
	}

	// Lock the writeset in row-id order. TryLock models the
	// first-writer-wins conflict: a held lock is a concurrent committer,
	// which is an abort, not a wait.
	sort.Slice(self.writeSet, func(i, j int) bool {
		return self.writeSet[i].rowID < self.writeSet[j].rowID
	})
	locked := make([]*row, 0, len(self.writeSet))
	unlockAll := func() {
		for _, r := range locked {
			r.mu.Unlock()
		}
	}
	for i := range self.writeSet {
		w := &self.writeSet[i]
		r := w.tbl.row(w.rowID)
		if r == nil || !r.mu.TryLock() {
			unlockAll()
			self.Abort()
			*result = AbortedByWriteLock
			return false
		}
		locked = append(locked, r)
	}

	if !self.validateReads(locked) {
		unlockAll()
		self.Abort()
		*result = AbortedByValidation
		return false
	}

	if !self.db.logger.Record(self) {
		unlockAll()
		self.Abort()
		*result = AbortedByLogger
		return false
	}

	wts := self.db.clock.Inc()
	for i := range self.writeSet {
		w := &self.writeSet[i]
		r := locked[i]
		copy(r.data, w.buf)
		r.wts = wts
	}
	unlockAll()

	self.active = false
	self.readSet = self.readSet[:0]
	self.writeSet = self.writeSet[:0]
	self.undo = self.undo[:0]
	*result = Committed
	return true
}

// validateReads checks that every observed version is still the latest.
// Rows in locked are already held by this transaction and are compared
// without re-locking; all other rows are probed with TryLock so validation
// never waits on a concurrent committer.
func (self *Transaction) validateReads(locked []*row) bool {
	for i := range self.readSet {
		e := &self.readSet[i]
		r := e.tbl.row(e.rowID)
		if r == nil {
			return false
		}
		held := false
		for _, lr := range locked {
			if lr == r {
				held = true
				break
			}
		}
		if held {
			if r.wts != e.wts {
				return false
			}
			continue
		}
		// Never block here: the caller may hold writeset locks, and a
		// peer committer holding this row may in turn be waiting on one
		// of ours. A held lock is a concurrent committer touching the
		// row, which is a conflict, not something to wait out.
		if !r.mu.TryLock() {
			return false
		}
		ok := r.wts == e.wts
		r.mu.Unlock()
		if !ok {
			return false
		}
	}
	return true
}

// RowAccess is a handle for accessing one row within a transaction. The
// usual sequence is Peek, then Read and/or Write, then Data/ConstData.
// A handle may be reused across rows via Reset.
type RowAccess struct {
	tx     *Transaction
	tbl    *Table
	rowID  uint64
	wts    uint64
	buf    []byte
	peeked bool
	loaded bool
	staged bool
}

func NewRowAccess(tx *Transaction) *RowAccess {
	return &RowAccess{
		tx: tx,
	}
}

// Reset detaches the handle from its current row so it can be reused.
func (self *RowAccess) Reset() {
	if self.staged {
		// The staged buffer now belongs to the transaction's writeset.
		self.buf = nil
	}
	self.tbl = nil
	self.peeked = false
	self.loaded = false
	self.staged = false
}

// Peek resolves rowID in tbl and snapshots its current write timestamp.
// forRead/forWrite declare the intended accesses. Returns false if the row
// does not exist or the transaction is not active.
func (self *RowAccess) Peek(tbl *Table, columnGroup uint16, rowID uint64, forRead, forWrite bool) bool {
	if self.tx == nil || !self.tx.active {
		return false
	}
	r := tbl.row(rowID)
	if r == nil {
		return false
	}
	if self.staged {
		self.buf = nil
	}
	self.tbl = tbl
	self.rowID = rowID
	self.peeked = true
	self.loaded = false
	self.staged = false
	return true
}

// RowID returns the physical row id of the peeked or newly created row.
func (self *RowAccess) RowID() uint64 {
	return self.rowID
}

// load copies the latest committed version into the handle buffer and
// remembers its timestamp.
func (self *RowAccess) load() bool {
	r := self.tbl.row(self.rowID)
	if r == nil {
		return false
	}
	if cap(self.buf) < len(r.data) {
		self.buf = make([]byte, len(r.data))
	}
	self.buf = self.buf[:len(r.data)]
	r.mu.Lock()
	copy(self.buf, r.data)
	self.wts = r.wts
	r.mu.Unlock()
	self.loaded = true
	return true
}

// Read makes the latest committed version visible through ConstData and,
// unless the transaction is peek-only, registers it for commit-time
// validation.
func (self *RowAccess) Read() bool {
	if !self.peeked {
		return false
	}
	if !self.loaded && !self.load() {
		return false
	}
	if !self.tx.peekOnly {
		self.tx.readSet = append(self.tx.readSet, readEntry{
			tbl:   self.tbl,
			rowID: self.rowID,
			wts:   self.wts,
		})
	}
	return true
}

// Write stages the row for writing: the handle buffer becomes a private
// writable copy installed at commit. sizeHint is the expected data size and
// must not exceed the table's row size.
func (self *RowAccess) Write(sizeHint uint64) bool {
	if !self.peeked || self.tx.peekOnly {
		return false
	}
	if sizeHint > self.tbl.dataSize {
		return false
	}
	if !self.loaded && !self.load() {
		return false
	}
	if !self.staged {
		self.tx.writeSet = append(self.tx.writeSet, writeEntry{
			tbl:   self.tbl,
			rowID: self.rowID,
			buf:   self.buf,
		})
		self.staged = true
	}
	return true
}

// NewRow allocates a fresh zeroed row in tbl and stages it for writing.
// The allocation is rolled back if the transaction aborts. Used during
// table population.
func (self *RowAccess) NewRow(tbl *Table, columnGroup uint16, dataSize uint64) bool {
	if self.tx == nil || !self.tx.active || self.tx.peekOnly {
		return false
	}
	if dataSize > tbl.dataSize {
		return false
	}
	if self.staged {
		self.buf = nil
	}
	self.tbl = tbl
	self.rowID = tbl.newRow()
	self.peeked = true
	if cap(self.buf) < int(tbl.dataSize) {
		self.buf = make([]byte, tbl.dataSize)
	}
	self.buf = self.buf[:tbl.dataSize]
	for i := range self.buf {
		self.buf[i] = 0
	}
	self.wts = 0
	self.loaded = true
	self.tx.writeSet = append(self.tx.writeSet, writeEntry{
		tbl:   tbl,
		rowID: self.rowID,
		buf:   self.buf,
	})
	self.staged = true
	rowID := self.rowID
	self.tx.undo = append(self.tx.undo, func() {
		tbl.freeRow(rowID)
	})
	return true
}

// Data returns the staged writable copy. Valid only after Write or NewRow.
func (self *RowAccess) Data() []byte {
	if !self.staged {
		return nil
	}
	return self.buf
}

// ConstData returns a read-only view of the row as of Read (or the staged
// copy once written).
func (self *RowAccess) ConstData() []byte {
	if !self.loaded {
		return nil
	}
	return self.buf
}

// Prefetch hints that rowID will be consumed shortly. The Go runtime offers
// no portable cache-prefetch primitive, so this touches the row header to
// pull it toward the accessing core.
func (self *RowAccess) Prefetch(tbl *Table, columnGroup uint16, rowID uint64, offset, length uint64) {
	_ = tbl.row(rowID)
}
