package txbench

import (
	"testing"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/hhkbp2/testify/require"
)

func newResultTask(start, end time.Time, committed, scanned uint64) *Task {
	return &Task{
		StartTime: start,
		EndTime:   end,
		Committed: committed,
		Scanned:   scanned,
		Latency:   hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3),
	}
}

func TestAggregateResults(t *testing.T) {
	base := time.Now()
	// The elapsed window is the overlap across workers, not a per-worker
	// sum: earliest start to latest end.
	tasks := []*Task{
		newResultTask(base, base.Add(2*time.Second), 100, 0),
		newResultTask(base.Add(500*time.Millisecond), base.Add(4*time.Second), 300, 0),
	}
	results := AggregateResults(tasks)
	require.Equal(t, 4*time.Second, results.Elapsed)
	require.Equal(t, uint64(400), results.TotalCommitted)
	require.Equal(t, uint64(2), results.ThreadCount)
	require.Equal(t, float64(100), results.Throughput())
	require.Equal(t, float64(8), results.ThreadSeconds())
}

func TestAggregateResultsScanned(t *testing.T) {
	base := time.Now()
	task := newResultTask(base, base.Add(time.Second), 10, 1000)
	task.Scan = NewScanStrategy(ScanFullTable)
	results := AggregateResults([]*Task{task})
	require.Equal(t, uint64(1000), results.TotalScanned)
	require.Equal(t, float64(1000), results.ScanThroughput())
}

func TestAggregateResultsLatencyMerge(t *testing.T) {
	base := time.Now()
	t1 := newResultTask(base, base.Add(time.Second), 1, 0)
	t2 := newResultTask(base, base.Add(time.Second), 1, 0)
	t1.Latency.RecordValue(100)
	t2.Latency.RecordValue(300)
	results := AggregateResults([]*Task{t1, t2})
	require.Equal(t, int64(2), results.Latency.TotalCount())
}
