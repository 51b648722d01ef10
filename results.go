package txbench

import (
	"time"

	"github.com/codahale/hdrhistogram"
)

// Results is the aggregate outcome of one measured phase.
type Results struct {
	// Elapsed is the effective overlap window across all workers:
	// max(per-worker end time) - min(per-worker start time). Wall time,
	// not a per-worker sum, is the throughput denominator.
	Elapsed        time.Duration
	ThreadCount    uint64
	TotalCommitted uint64
	TotalScanned   uint64
	Latency        *hdrhistogram.Histogram
	scanEnabled    bool
}

// AggregateResults combines finished per-worker state. Every worker must
// have drained and been joined before this is called.
func AggregateResults(tasks []*Task) *Results {
	results := &Results{
		ThreadCount: uint64(len(tasks)),
		Latency:     hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3),
	}
	var minStart, maxEnd time.Time
	for i, task := range tasks {
		if i == 0 || task.StartTime.Before(minStart) {
			minStart = task.StartTime
		}
		if i == 0 || task.EndTime.After(maxEnd) {
			maxEnd = task.EndTime
		}
		results.TotalCommitted += task.Committed
		results.TotalScanned += task.Scanned
		results.Latency.Merge(task.Latency)
		if task.Scan != nil {
			results.scanEnabled = true
		}
	}
	results.Elapsed = maxEnd.Sub(minStart)
	return results
}

// Throughput returns committed transactions per second over the overlap
// window.
func (self *Results) Throughput() float64 {
	seconds := self.Elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(self.TotalCommitted) / seconds
}

// ScanThroughput returns scanned rows per second over the overlap window.
func (self *Results) ScanThroughput() float64 {
	seconds := self.Elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(self.TotalScanned) / seconds
}

// ThreadSeconds returns the aggregate busy budget: elapsed wall time times
// the worker count.
func (self *Results) ThreadSeconds() float64 {
	return self.Elapsed.Seconds() * float64(self.ThreadCount)
}

// Report prints the human-readable result lines.
func (self *Results) Report() {
	Printf("throughput:                   %7.3f M/sec", self.Throughput()*0.000001)
	if self.scanEnabled {
		Printf("scan throughput:              %7.3f M/sec", self.ScanThroughput()*0.000001)
	}
	Printf("committed:                    %d", self.TotalCommitted)
	Printf("elapsed:                      %.3f sec", self.Elapsed.Seconds())
	Printf("thread-seconds:               %.3f", self.ThreadSeconds())
	if self.Latency.TotalCount() > 0 {
		Printf("commit latency mean(us):      %.1f", self.Latency.Mean())
		Printf("commit latency p50(us):       %d", self.Latency.ValueAtQuantile(50))
		Printf("commit latency p95(us):       %d", self.Latency.ValueAtQuantile(95))
		Printf("commit latency p99(us):       %d", self.Latency.ValueAtQuantile(99))
	}
}
