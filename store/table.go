package store

import (
	"sync"
)

// row is one versioned row. wts is the write timestamp of the installed
// version; both wts and data are guarded by mu. Padding keeps concurrently
// locked rows off each other's cache line.
type row struct {
	mu   sync.Mutex
	wts  uint64
	data []byte
	_    [24]byte
}

// Table holds fixed-size rows addressed by dense physical row ids. Rows are
// appended during population and accessed in place afterwards; all version
// coordination happens through per-row locks and write timestamps.
type Table struct {
	name     string
	dataSize uint64

	appendMu sync.Mutex
	rows     []*row
}

func newTable(name string, dataSize uint64) *Table {
	return &Table{
		name:     name,
		dataSize: dataSize,
	}
}

func (self *Table) Name() string {
	return self.name
}

func (self *Table) DataSize() uint64 {
	return self.dataSize
}

// RowCount returns the number of live rows. Slots freed by aborted
// allocations do not count.
func (self *Table) RowCount() uint64 {
	self.appendMu.Lock()
	defer self.appendMu.Unlock()
	count := uint64(0)
	for _, r := range self.rows {
		if r != nil {
			count++
		}
	}
	return count
}

// newRow allocates a zeroed row and returns its physical row id.
func (self *Table) newRow() uint64 {
	r := &row{
		data: make([]byte, self.dataSize),
	}
	self.appendMu.Lock()
	defer self.appendMu.Unlock()
	self.rows = append(self.rows, r)
	return uint64(len(self.rows) - 1)
}

// freeRow releases a row allocated by an aborted transaction. The slot
// stays as a hole; physical row ids are never reused.
func (self *Table) freeRow(rowID uint64) {
	self.appendMu.Lock()
	defer self.appendMu.Unlock()
	if rowID < uint64(len(self.rows)) {
		self.rows[rowID] = nil
	}
}

func (self *Table) row(rowID uint64) *row {
	self.appendMu.Lock()
	defer self.appendMu.Unlock()
	if rowID >= uint64(len(self.rows)) {
		return nil
	}
	return self.rows[rowID]
}

// WriteTimestamp returns the write timestamp of the latest version of rowID.
// Meant for verification between runs, not for the transaction path.
func (self *Table) WriteTimestamp(rowID uint64) uint64 {
	r := self.row(rowID)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wts
}

// Scan visits every row of the table in store-defined order and hands fn the
// byte range [offset, offset+length) of the latest committed version. The
// slice is only valid for the duration of the callback.
//
// tx is unused by this implementation beyond requiring an active
// transaction; rows are visited peek-only, without readset registration.
func (self *Table) Scan(tx *Transaction, columnGroup uint16, offset, length uint64, fn func(data []byte)) bool {
	if tx == nil || !tx.active {
		return false
	}
	if offset+length > self.dataSize {
		return false
	}
	self.appendMu.Lock()
	rows := self.rows
	self.appendMu.Unlock()
	for _, r := range rows {
		if r == nil {
			continue
		}
		r.mu.Lock()
		fn(r.data[offset : offset+length])
		r.mu.Unlock()
	}
	return true
}
