package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hhkbp2/txbench"
	"github.com/hhkbp2/txbench/store"
)

var (
	scanMode      = flag.String("scan", "none", "snapshot scan strategy: none|peek|chain|full")
	snapshotRatio = flag.Float64("snapshot-ratio", 0, "fraction of transactions run in snapshot (peek-only) mode")
	indexKind     = flag.String("index", "hash", "index resolving logical keys to row ids: hash|ordered|none")
	dataSize      = flag.Uint64("data-size", txbench.DefaultDataSize, "bytes per row")
	columnSize    = flag.Uint64("column-size", txbench.DefaultColumnSize, "bytes per column; must divide data-size")
	verify        = flag.Bool("verify", false, "capture a per-thread commit log for verification")
	logLevel      = flag.String("log", "info", "log level: quiet|error|info|debug|verbose")
)

func usage() {
	fmt.Fprintf(os.Stderr,
		"usage: %s [options] NUM-ROWS REQS-PER-TX REQS-PER-WR-TX WR-TX-RATIO ZIPF-THETA TX-COUNT THREAD-COUNT\n",
		filepath.Base(os.Args[0]))
	fmt.Fprint(os.Stderr, "options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	txbench.SetLogLevel(*logLevel)

	cfg := txbench.NewBenchConfig()
	if err := cfg.ParsePositionals(flag.Args()); err != nil {
		usage()
		txbench.ExitOnError("%s", err)
	}
	if err := cfg.SetScanMode(*scanMode); err != nil {
		txbench.ExitOnError("%s", err)
	}
	if err := cfg.SetIndexKind(*indexKind); err != nil {
		txbench.ExitOnError("%s", err)
	}
	cfg.SnapshotRatio = *snapshotRatio
	cfg.DataSize = *dataSize
	cfg.ColumnSize = *columnSize
	if err := cfg.Validate(); err != nil {
		txbench.ExitOnError("%s", err)
	}

	txbench.Printf("num_rows = %d", cfg.NumRows)
	txbench.Printf("reqs_per_tx = %d", cfg.ReqsPerTx)
	txbench.Printf("reqs_per_wr_tx = %d", cfg.ReqsPerWrTx)
	txbench.Printf("all_write_ratio = %f", cfg.WriteTxRatio)
	txbench.Printf("zipf_theta = %f", cfg.ZipfTheta)
	txbench.Printf("tx_count = %d", cfg.TxCount)
	txbench.Printf("num_threads = %d", cfg.ThreadCount)
	txbench.Printf("scan_mode = %s", cfg.ScanMode)
	txbench.Printf("")

	var logger store.Logger
	if *verify {
		logger = txbench.NewVerificationLogger()
	}

	txbench.Statusf("initializing table")
	harness, err := txbench.NewHarness(cfg, logger)
	if err != nil {
		txbench.ExitOnError("setup failed: %s", err)
	}

	results := harness.Run()
	txbench.Printf("")
	results.Report()
}
