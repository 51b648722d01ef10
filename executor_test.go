package txbench

import (
	"testing"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/hhkbp2/testify/require"
	"github.com/hhkbp2/txbench/store"
	"go.uber.org/atomic"
)

func testConfig(numRows, txCount, threads uint64) *BenchConfig {
	cfg := NewBenchConfig()
	cfg.NumRows = numRows
	cfg.ReqsPerTx = 4
	cfg.ReqsPerWrTx = 3
	cfg.WriteTxRatio = 0
	cfg.ZipfTheta = 0
	cfg.TxCount = txCount
	cfg.ThreadCount = threads
	cfg.DataSize = 100
	cfg.ColumnSize = 100
	return cfg
}

func TestSingleThreadRun(t *testing.T) {
	cfg := testConfig(100, 50, 1)
	harness, err := NewHarness(cfg, nil)
	require.Nil(t, err)
	results := harness.Run()

	require.Equal(t, uint64(50), results.TotalCommitted)
	require.True(t, results.Elapsed > 0)
	require.Equal(t, float64(50)/results.Elapsed.Seconds(), results.Throughput())
	for _, task := range harness.Tasks() {
		require.Equal(t, uint64(50), task.Committed)
		require.Equal(t, StateStopped, task.State)
	}
}

func TestReadOnlyRunLeavesNoVersions(t *testing.T) {
	cfg := testConfig(200, 100, 2)
	harness, err := NewHarness(cfg, nil)
	require.Nil(t, err)

	before := make([]uint64, cfg.NumRows)
	for rowID := uint64(0); rowID < cfg.NumRows; rowID++ {
		before[rowID] = harness.Table().WriteTimestamp(rowID)
	}

	harness.Run()

	for rowID := uint64(0); rowID < cfg.NumRows; rowID++ {
		require.Equal(t, before[rowID], harness.Table().WriteTimestamp(rowID),
			"row %d gained a version in a read-only run", rowID)
	}
}

func TestWriteRunInstallsVersions(t *testing.T) {
	cfg := testConfig(64, 200, 2)
	cfg.WriteTxRatio = 1
	harness, err := NewHarness(cfg, nil)
	require.Nil(t, err)

	results := harness.Run()
	require.True(t, results.TotalCommitted > 0)

	changed := 0
	for rowID := uint64(0); rowID < cfg.NumRows; rowID++ {
		// Population committed everything at one timestamp per batch;
		// any later timestamp is a workload write.
		if harness.Table().WriteTimestamp(rowID) > uint64(cfg.NumRows) {
			changed++
		}
	}
	require.True(t, changed > 0)
}

func TestMultiThreadRun(t *testing.T) {
	cfg := testConfig(1000, 10000, 4)
	harness, err := NewHarness(cfg, nil)
	require.Nil(t, err)
	results := harness.Run()

	fullBudget := 0
	for _, task := range harness.Tasks() {
		require.Equal(t, StateStopped, task.State)
		require.True(t, task.Committed <= cfg.TxCount)
		// No worker issued a request before every peer had joined.
		require.Equal(t, uint32(cfg.ThreadCount), task.JoinedAtStart)
		if task.Committed == cfg.TxCount {
			fullBudget++
		}
	}
	// The first worker to drain exhausted its whole budget before the
	// stop flag could cut anyone short.
	require.True(t, fullBudget >= 1)
	require.True(t, results.TotalCommitted > 0)
	require.True(t, results.TotalCommitted <= cfg.TxCount*cfg.ThreadCount)
}

func TestKeysStayInRange(t *testing.T) {
	numRows := uint64(128)
	db, tbl, idx := newScanFixture(t, numRows)
	recorder := newRecordingIndex(idx)

	task := scanTask(tbl, recorder, numRows)
	task.DB = db
	task.NumThreads = 1
	task.TxCount = 300
	task.NumWrites = 3
	task.RowIDBegin = 0
	task.RowIDEnd = numRows
	task.AllWriteRatio = 0.5
	task.ZipfTheta = 0.9
	task.Latency = hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)

	RunPhase(PhaseMeasured, []*Task{task}, NewEpochState())

	require.Equal(t, uint64(300), task.Committed)
	// Every logical key the workload resolved lay inside [0, numRows).
	for key := range recorder.lookups {
		require.True(t, key < numRows, "key %d out of range", key)
	}
}

func TestVerificationLoggerCapturesCommits(t *testing.T) {
	logger := NewVerificationLogger()
	cfg := testConfig(100, 40, 1)
	harness, err := NewHarness(cfg, logger)
	require.Nil(t, err)
	harness.Run()

	task := harness.Tasks()[0]
	require.Equal(t, int(task.Committed), len(task.History))
	for i, snapshot := range task.History {
		require.Equal(t, uint64(0), snapshot.ThreadID)
		require.Equal(t, uint64(i), snapshot.CommitIndex)
		require.Equal(t, uint64(i), snapshot.TxIndex)
	}
}

func TestSnapshotScanRuns(t *testing.T) {
	for _, mode := range []ScanMode{ScanPeek, ScanChained, ScanFullTable} {
		cfg := testConfig(64, 50, 1)
		cfg.ScanMode = mode
		cfg.SnapshotRatio = 1
		harness, err := NewHarness(cfg, nil)
		require.Nil(t, err)
		results := harness.Run()

		task := harness.Tasks()[0]
		require.Equal(t, cfg.TxCount, task.Committed, "mode %s", mode)
		perCommit := task.Scan.ScannedPerCommit(task)
		require.Equal(t, cfg.TxCount*perCommit, results.TotalScanned, "mode %s", mode)
	}
}

func TestHarnessSetupErrors(t *testing.T) {
	cfg := testConfig(2, 10, 4)
	// Fewer rows than threads is a fatal setup error, not a retryable one.
	_, err := NewHarness(cfg, nil)
	require.NotNil(t, err)
}

// flakyLogger vetoes the first few commits it sees, then accepts the rest.
type flakyLogger struct {
	vetoes atomic.Int32
}

func (self *flakyLogger) Record(tx *store.Transaction) bool {
	return self.vetoes.Dec() < 0
}

// Population must survive aborted batches: a vetoed commit rolls its rows
// and index entries back, and the retried batch re-inserts them without
// duplicates.
func TestPopulateRetriesAbortedBatches(t *testing.T) {
	logger := &flakyLogger{}
	logger.vetoes.Store(3)
	cfg := testConfig(100, 10, 2)
	harness, err := NewHarness(cfg, logger)
	require.Nil(t, err)
	require.Equal(t, cfg.NumRows, harness.Table().RowCount())

	tx := store.NewTransaction(harness.DB(), 0)
	require.True(t, tx.Begin(false))
	seen := make(map[uint64]bool)
	for key := uint64(0); key < cfg.NumRows; key++ {
		var rowID uint64
		ret := harness.Index().Lookup(tx, key, true, func(k, v uint64) bool {
			rowID = v
			return false
		})
		require.Equal(t, store.LookupFound, ret)
		require.False(t, seen[rowID], "row id %d mapped twice", rowID)
		seen[rowID] = true
	}
	tx.Abort()
}

func TestPopulateResolvesThroughIndex(t *testing.T) {
	cfg := testConfig(100, 10, 1)
	harness, err := NewHarness(cfg, nil)
	require.Nil(t, err)

	tx := store.NewTransaction(harness.DB(), 0)
	require.True(t, tx.Begin(false))
	seen := make(map[uint64]bool)
	for key := uint64(0); key < cfg.NumRows; key++ {
		var rowID uint64
		ret := harness.Index().Lookup(tx, key, true, func(k, v uint64) bool {
			rowID = v
			return false
		})
		require.Equal(t, store.LookupFound, ret)
		require.True(t, rowID < cfg.NumRows)
		require.False(t, seen[rowID], "row id %d mapped twice", rowID)
		seen[rowID] = true
	}
	tx.Abort()
}
