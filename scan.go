package txbench

import (
	"github.com/hhkbp2/txbench/store"
)

// ScanMode names the snapshot read strategy chosen by static configuration.
type ScanMode uint8

const (
	ScanNone ScanMode = iota
	ScanPeek
	ScanChained
	ScanFullTable
)

var (
	nameToScanModes = map[string]ScanMode{
		"none":  ScanNone,
		"peek":  ScanPeek,
		"chain": ScanChained,
		"full":  ScanFullTable,
	}
)

func (self ScanMode) String() string {
	switch self {
	case ScanNone:
		return "none"
	case ScanPeek:
		return "peek"
	case ScanChained:
		return "chain"
	case ScanFullTable:
		return "full"
	default:
		return "unknown"
	}
}

// ScanStrategy is one snapshot (peek-only) read strategy. All three
// implementations produce the same sampled-byte checksum fold; they differ
// in how many rows they touch and how. Run returns the fold value and false
// on any row-access or lookup failure, in which case the caller must abort
// the enclosing transaction.
//
// physRowID is the index-resolved physical row id; virtRowID is the logical
// key before resolution, which the chained strategy uses for its ring
// arithmetic. steps bounds the chained walk.
type ScanStrategy interface {
	Run(tx *store.Transaction, task *Task, physRowID, virtRowID, columnID, steps uint64) (fold uint64, ok bool)
	// ScannedPerCommit is the number of rows one committed snapshot
	// transaction accounts for under this strategy.
	ScannedPerCommit(task *Task) uint64
}

func NewScanStrategy(mode ScanMode) ScanStrategy {
	switch mode {
	case ScanPeek:
		return &directPeekStrategy{}
	case ScanChained:
		return &indexChainedStrategy{}
	case ScanFullTable:
		return &fullTableStrategy{}
	default:
		return nil
	}
}

// foldColumn folds every 64th byte of one column plus its final byte into
// the running checksum. data must be the column's byte view.
func foldColumn(data []byte, columnSize uint64, v uint64) uint64 {
	for j := uint64(0); j < columnSize; j += foldStride {
		v += uint64(data[j])
	}
	v += uint64(data[columnSize-1])
	return v
}

// directPeekStrategy resolves one row and reads it without registering a
// readset entry. No traversal.
type directPeekStrategy struct{}

func (self *directPeekStrategy) Run(tx *store.Transaction, task *Task, physRowID, virtRowID, columnID, steps uint64) (uint64, bool) {
	rah := store.NewRowAccess(tx)
	if !rah.Peek(task.Table, 0, physRowID, false, false) || !rah.Read() {
		return 0, false
	}
	data := rah.ConstData()[columnID*task.ColumnSize:]
	return foldColumn(data, task.ColumnSize, 0), true
}

func (self *directPeekStrategy) ScannedPerCommit(task *Task) uint64 {
	return 0
}

// indexChainedStrategy walks a logical ring of row ids for steps
// iterations. Each iteration looks up the next key via the index, prefetches
// the key after that and the row it names, then consumes the current row,
// pipelining lookup, prefetch and consumption. The ring wraps modulo the
// total row count.
type indexChainedStrategy struct{}

func (self *indexChainedStrategy) Run(tx *store.Transaction, task *Task, physRowID, virtRowID, columnID, steps uint64) (uint64, bool) {
	v := uint64(0)
	rah := store.NewRowAccess(tx)

	nextRowID := physRowID
	nextNextKey := virtRowID + 1
	if nextNextKey == task.NumRows {
		nextNextKey = 0
	}

	for scanI := uint64(0); scanI < steps; scanI++ {
		thisRowID := nextRowID

		// Look up the index for the next row.
		result := task.Index.Lookup(tx, nextNextKey, true,
			func(k, value uint64) bool {
				nextRowID = value
				return false
			})
		if result != store.LookupFound {
			return 0, false
		}

		// Prefetch the index entry for the row after that.
		nextNextKey++
		if nextNextKey == task.NumRows {
			nextNextKey = 0
		}
		task.Index.Prefetch(tx, nextNextKey)

		// Prefetch the next row.
		rah.Prefetch(task.Table, 0, nextRowID, columnID*task.ColumnSize, task.ColumnSize)

		// Consume the current row.
		if !rah.Peek(task.Table, 0, thisRowID, false, false) || !rah.Read() {
			return 0, false
		}
		data := rah.ConstData()[columnID*task.ColumnSize:]
		v = foldColumn(data, task.ColumnSize, v)

		rah.Reset()
	}
	return v, true
}

func (self *indexChainedStrategy) ScannedPerCommit(task *Task) uint64 {
	return task.NumRequests
}

// fullTableStrategy delegates to the store's scan primitive; visitation
// order and count are entirely store-defined.
type fullTableStrategy struct{}

func (self *fullTableStrategy) Run(tx *store.Transaction, task *Task, physRowID, virtRowID, columnID, steps uint64) (uint64, bool) {
	v := uint64(0)
	ok := task.Table.Scan(tx, 0, columnID*task.ColumnSize, task.ColumnSize,
		func(data []byte) {
			v = foldColumn(data, task.ColumnSize, v)
		})
	if !ok {
		return 0, false
	}
	return v, true
}

func (self *fullTableStrategy) ScannedPerCommit(task *Task) uint64 {
	return task.NumRows
}
