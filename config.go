package txbench

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultDataSize   = uint64(1000)
	DefaultColumnSize = uint64(100)
	// Stride of the sampled-byte fold within one column.
	foldStride = uint64(64)
)

// IndexKind selects how logical keys resolve to physical row ids.
type IndexKind uint8

const (
	IndexHash IndexKind = iota
	IndexOrdered
	IndexNone
)

var (
	nameToIndexKind = map[string]IndexKind{
		"hash":    IndexHash,
		"ordered": IndexOrdered,
		"none":    IndexNone,
	}
)

// BenchConfig is the static configuration of one benchmark run. The seven
// positional parameters come from the command line; the rest are optional
// knobs with defaults.
type BenchConfig struct {
	NumRows      uint64
	ReqsPerTx    uint64
	ReqsPerWrTx  uint64
	WriteTxRatio float64
	ZipfTheta    float64
	TxCount      uint64
	ThreadCount  uint64

	ScanMode      ScanMode
	SnapshotRatio float64
	IndexKind     IndexKind
	DataSize      uint64
	ColumnSize    uint64
}

func NewBenchConfig() *BenchConfig {
	return &BenchConfig{
		ScanMode:      ScanNone,
		SnapshotRatio: 0,
		IndexKind:     IndexHash,
		DataSize:      DefaultDataSize,
		ColumnSize:    DefaultColumnSize,
	}
}

// ParsePositionals fills the seven workload parameters from the positional
// argument list, in the order:
// NUM-ROWS REQS-PER-TX REQS-PER-WR-TX WR-TX-RATIO ZIPF-THETA TX-COUNT
// THREAD-COUNT.
func (self *BenchConfig) ParsePositionals(args []string) error {
	if len(args) != 7 {
		return fmt.Errorf("expected 7 positional arguments, got %d", len(args))
	}
	uints := []struct {
		dest *uint64
		name string
		pos  int
	}{
		{&self.NumRows, "NUM-ROWS", 0},
		{&self.ReqsPerTx, "REQS-PER-TX", 1},
		{&self.ReqsPerWrTx, "REQS-PER-WR-TX", 2},
		{&self.TxCount, "TX-COUNT", 5},
		{&self.ThreadCount, "THREAD-COUNT", 6},
	}
	for _, u := range uints {
		v, err := strconv.ParseUint(args[u.pos], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %s", u.name, args[u.pos], err)
		}
		*u.dest = v
	}
	floats := []struct {
		dest *float64
		name string
		pos  int
	}{
		{&self.WriteTxRatio, "WR-TX-RATIO", 3},
		{&self.ZipfTheta, "ZIPF-THETA", 4},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(args[f.pos], 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %s", f.name, args[f.pos], err)
		}
		*f.dest = v
	}
	return nil
}

// SetScanMode parses a scan-mode name.
func (self *BenchConfig) SetScanMode(name string) error {
	mode, ok := nameToScanModes[name]
	if !ok {
		return fmt.Errorf("unknown scan mode %q", name)
	}
	self.ScanMode = mode
	return nil
}

// SetIndexKind parses an index-kind name.
func (self *BenchConfig) SetIndexKind(name string) error {
	kind, ok := nameToIndexKind[name]
	if !ok {
		return fmt.Errorf("unknown index kind %q", name)
	}
	self.IndexKind = kind
	return nil
}

// Validate checks the configuration for contradictions that must stop the
// process before any worker starts.
func (self *BenchConfig) Validate() error {
	if self.ThreadCount < 1 {
		return fmt.Errorf("THREAD-COUNT must be at least 1")
	}
	if self.NumRows < self.ThreadCount {
		return fmt.Errorf("NUM-ROWS (%d) must be at least THREAD-COUNT (%d)",
			self.NumRows, self.ThreadCount)
	}
	if self.ReqsPerTx < 1 || self.ReqsPerWrTx < 1 {
		return fmt.Errorf("request counts must be at least 1")
	}
	if self.WriteTxRatio < 0 || self.WriteTxRatio > 1 {
		return fmt.Errorf("WR-TX-RATIO must lie in [0, 1]")
	}
	if self.ZipfTheta < 0 || self.ZipfTheta >= 1 {
		return fmt.Errorf("ZIPF-THETA must lie in [0, 1)")
	}
	if self.SnapshotRatio < 0 || self.SnapshotRatio > 1 {
		return fmt.Errorf("snapshot ratio must lie in [0, 1]")
	}
	if self.ColumnSize == 0 || self.DataSize%self.ColumnSize != 0 {
		return fmt.Errorf("column size %d must divide data size %d",
			self.ColumnSize, self.DataSize)
	}
	if self.ScanMode == ScanChained && self.IndexKind == IndexNone {
		return fmt.Errorf("the index-chained scan requires an index")
	}
	if self.ScanMode != ScanNone && self.SnapshotRatio == 0 {
		return fmt.Errorf("scan mode %s needs a snapshot ratio above 0", self.ScanMode)
	}
	return nil
}

// ColumnCount returns the number of columns per row.
func (self *BenchConfig) ColumnCount() uint64 {
	return self.DataSize / self.ColumnSize
}

func ExitOnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}
