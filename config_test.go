package txbench

import (
	"testing"

	"github.com/hhkbp2/testify/require"
)

func TestParsePositionals(t *testing.T) {
	cfg := NewBenchConfig()
	args := []string{"10000", "4", "3", "0.1", "0.99", "200000", "8"}
	require.Nil(t, cfg.ParsePositionals(args))
	require.Equal(t, uint64(10000), cfg.NumRows)
	require.Equal(t, uint64(4), cfg.ReqsPerTx)
	require.Equal(t, uint64(3), cfg.ReqsPerWrTx)
	require.Equal(t, 0.1, cfg.WriteTxRatio)
	require.Equal(t, 0.99, cfg.ZipfTheta)
	require.Equal(t, uint64(200000), cfg.TxCount)
	require.Equal(t, uint64(8), cfg.ThreadCount)
}

func TestParsePositionalsWrongCount(t *testing.T) {
	cfg := NewBenchConfig()
	require.NotNil(t, cfg.ParsePositionals([]string{"1", "2", "3"}))
	require.NotNil(t, cfg.ParsePositionals(nil))
}

func TestParsePositionalsBadValue(t *testing.T) {
	cfg := NewBenchConfig()
	args := []string{"10000", "four", "3", "0.1", "0.99", "200000", "8"}
	require.NotNil(t, cfg.ParsePositionals(args))
	args = []string{"10000", "4", "3", "lots", "0.99", "200000", "8"}
	require.NotNil(t, cfg.ParsePositionals(args))
}

func validConfig() *BenchConfig {
	cfg := NewBenchConfig()
	cfg.NumRows = 1000
	cfg.ReqsPerTx = 4
	cfg.ReqsPerWrTx = 3
	cfg.WriteTxRatio = 0.1
	cfg.ZipfTheta = 0.6
	cfg.TxCount = 100
	cfg.ThreadCount = 4
	return cfg
}

func TestValidate(t *testing.T) {
	require.Nil(t, validConfig().Validate())

	cfg := validConfig()
	cfg.ThreadCount = 0
	require.NotNil(t, cfg.Validate())

	cfg = validConfig()
	cfg.NumRows = 3
	require.NotNil(t, cfg.Validate())

	cfg = validConfig()
	cfg.WriteTxRatio = 1.5
	require.NotNil(t, cfg.Validate())

	cfg = validConfig()
	cfg.ColumnSize = 300
	require.NotNil(t, cfg.Validate())

	cfg = validConfig()
	cfg.ScanMode = ScanChained
	cfg.IndexKind = IndexNone
	require.NotNil(t, cfg.Validate())

	cfg = validConfig()
	cfg.ScanMode = ScanPeek
	require.NotNil(t, cfg.Validate())
	cfg.SnapshotRatio = 0.5
	require.Nil(t, cfg.Validate())
}

func TestScanModeNames(t *testing.T) {
	cfg := NewBenchConfig()
	for name, mode := range nameToScanModes {
		require.Nil(t, cfg.SetScanMode(name))
		require.Equal(t, mode, cfg.ScanMode)
	}
	require.NotNil(t, cfg.SetScanMode("sideways"))
	require.NotNil(t, cfg.SetIndexKind("skiplist"))
}
