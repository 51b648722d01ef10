package txbench

import (
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/hhkbp2/txbench/store"
)

// LifecycleState tracks where a worker is in the per-phase protocol.
type LifecycleState uint8

const (
	StateNotStarted LifecycleState = iota
	StateJoining
	StateActive
	StateDraining
	StateStopped
)

// TransactionSnapshot is the per-commit record captured by the verification
// logger: which worker committed which logical transaction as its n-th
// commit.
type TransactionSnapshot struct {
	ThreadID    uint64
	TxIndex     uint64
	CommitIndex uint64
}

// Task is the per-worker record: immutable workload parameters set up
// before a phase starts, plus run state mutated only by the owning worker.
// The aggregator reads a Task only after its worker has drained.
type Task struct {
	DB    *store.DB
	Table *store.Table
	Index store.Index

	ThreadID   uint64
	NumThreads uint64

	// Workload parameters.
	NumRows       uint64
	TxCount       uint64
	NumWrites     uint64
	NumRequests   uint64
	RowIDBegin    uint64
	RowIDEnd      uint64
	AllWriteRatio float64
	ZipfTheta     float64
	SnapshotRatio float64
	DataSize      uint64
	ColumnSize    uint64
	Scan          ScanStrategy

	// Run state, owned by the worker.
	State         LifecycleState
	TxIndex       uint64
	ReqIndex      uint64
	CommitIndex   uint64
	JoinedAtStart uint32

	// Results, read after the worker drains.
	StartTime time.Time
	EndTime   time.Time
	Committed uint64
	Scanned   uint64
	Latency   *hdrhistogram.Histogram

	// Commit log captured by the verification logger, nil otherwise.
	History []TransactionSnapshot

	// Keeps the hot counters of adjacent tasks off one cache line.
	_ [64]byte
}

// NewTask builds the per-worker record for one phase. Row ranges partition
// [0, NumRows) evenly, with the last worker absorbing the remainder.
func NewTask(cfg *BenchConfig, db *store.DB, tbl *store.Table, idx store.Index, threadID uint64) *Task {
	perThread := cfg.NumRows / cfg.ThreadCount
	rowIDEnd := (threadID + 1) * perThread
	if threadID == cfg.ThreadCount-1 {
		rowIDEnd = cfg.NumRows
	}
	return &Task{
		DB:            db,
		Table:         tbl,
		Index:         idx,
		ThreadID:      threadID,
		NumThreads:    cfg.ThreadCount,
		NumRows:       cfg.NumRows,
		TxCount:       cfg.TxCount,
		NumWrites:     cfg.ReqsPerWrTx,
		NumRequests:   cfg.ReqsPerTx,
		RowIDBegin:    threadID * perThread,
		RowIDEnd:      rowIDEnd,
		AllWriteRatio: cfg.WriteTxRatio,
		ZipfTheta:     cfg.ZipfTheta,
		SnapshotRatio: cfg.SnapshotRatio,
		DataSize:      cfg.DataSize,
		ColumnSize:    cfg.ColumnSize,
		Scan:          NewScanStrategy(cfg.ScanMode),
		Latency:       hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3),
	}
}

// ResetRunState clears the mutable part of the task between phases.
func (self *Task) ResetRunState() {
	self.State = StateNotStarted
	self.TxIndex = 0
	self.ReqIndex = 0
	self.CommitIndex = 0
	self.JoinedAtStart = 0
	self.Committed = 0
	self.Scanned = 0
	self.History = nil
	self.Latency.Reset()
}
