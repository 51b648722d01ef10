package txbench

import (
	"math"
	"runtime"
	"time"

	g "github.com/hhkbp2/txbench/generator"
	"github.com/hhkbp2/txbench/store"
)

// runWorker drives one worker through a whole phase: join the start
// barrier, register with the store, execute the retry-until-commit loop
// until the transaction budget is exhausted or the global stop flag fires,
// then drain. Every piece of mutable state lives in the worker-owned task.
func runWorker(task *Task, epoch *EpochState) {
	threadID := uint16(task.ThreadID)
	tbl := task.Table
	idx := task.Index

	numThreads := task.NumThreads
	numRows := task.NumRows
	rowIDBegin := task.RowIDBegin
	threadNumRows := task.RowIDEnd - task.RowIDBegin
	columnSize := task.ColumnSize
	columnCount := task.DataSize / task.ColumnSize

	seed := g.DeriveSeed(task.ThreadID)
	zipf := g.NewZipfianGenerator(threadNumRows, task.ZipfTheta, g.NewRand(seed))
	uRand := g.NewRand(seed + 1)

	allWriteThreshold := uint32(task.AllWriteRatio * float64(math.MaxUint32))
	snapshotThreshold := uint32(task.SnapshotRatio * float64(math.MaxUint32))

	// Join barrier: no worker issues a request before every peer has
	// joined. Store registration happens before joining, so a full
	// joined count implies full store membership; the counter is
	// monotonic within a phase, which keeps the spin deadlock-free even
	// when a fast peer drains quickly. The spin keeps invoking the
	// store's idle callback so its epoch bookkeeping makes progress
	// while we wait.
	task.State = StateJoining
	task.DB.Activate(threadID)
	epoch.Join()
	for epoch.Joined() < uint32(numThreads) {
		runtime.Gosched()
		task.DB.Idle(threadID)
	}
	task.State = StateActive
	task.JoinedAtStart = epoch.Joined()

	task.StartTime = time.Now()

	nextTxI := uint64(0)
	nextReqI := uint64(0)
	commitI := uint64(0)
	scanned := uint64(0)

	tx := store.NewTransaction(task.DB, threadID)

	for nextTxI < task.TxCount && !epoch.Stopped() {
		allWrites := uRand.NextUint32() < allWriteThreshold
		usePeekOnly := false
		if task.Scan != nil && !allWrites {
			usePeekOnly = uRand.NextUint32() < snapshotThreshold
		}
		reqCount := task.NumRequests
		if allWrites {
			reqCount = task.NumWrites
		}

		txI := nextTxI
		nextTxI++
		reqI := nextReqI
		nextReqI += reqCount

		task.TxIndex = txI
		task.ReqIndex = reqI
		task.CommitIndex = commitI

		attemptStart := time.Now()

		// Retry until commit. Aborts are transient conflicts; the stop
		// flag is only observed between logical transactions, never
		// mid-attempt.
		for {
			aborted := false
			v := uint64(0)

			if !tx.Begin(usePeekOnly) {
				continue
			}

			for reqJ := uint64(0); reqJ < reqCount; reqJ++ {
				isRead := !allWrites && (reqJ != 2*reqCount/3)
				isRMW := !isRead

				var rowID uint64
				if allWrites {
					rowID = zipf.Next() + rowIDBegin
				} else if isRead {
					rowID = (uint64(uRand.NextUint32())%numThreads*threadNumRows + zipf.Next()) % numRows
				} else {
					rowID = uint64(uRand.NextUint32()) % numRows
				}
				virtualRowID := rowID
				columnID := uint64(uRand.NextUint32()) % columnCount

				if idx != nil {
					result := idx.Lookup(tx, rowID, true,
						func(k, value uint64) bool {
							rowID = value
							return false
						})
					if result != store.LookupFound {
						tx.Abort()
						aborted = true
						break
					}
				}

				if usePeekOnly {
					fold, ok := task.Scan.Run(tx, task, rowID, virtualRowID, columnID, reqCount)
					if !ok {
						tx.Abort()
						aborted = true
						break
					}
					v += fold
					continue
				}

				rah := store.NewRowAccess(tx)
				if isRead {
					if !rah.Peek(tbl, 0, rowID, true, false) || !rah.Read() {
						tx.Abort()
						aborted = true
						break
					}
					data := rah.ConstData()[columnID*columnSize:]
					v = foldColumn(data, columnSize, v)
				} else {
					if isRMW {
						if !rah.Peek(tbl, 0, rowID, true, true) ||
							!rah.Read() || !rah.Write(task.DataSize) {
							tx.Abort()
							aborted = true
							break
						}
					} else {
						if !rah.Peek(tbl, 0, rowID, false, true) ||
							!rah.Write(task.DataSize) {
							tx.Abort()
							aborted = true
							break
						}
					}
					data := rah.Data()[columnID*columnSize : (columnID+1)*columnSize]
					for j := uint64(0); j < columnSize; j += foldStride {
						v += uint64(data[j])
						data[j] = byte(v)
					}
					v += uint64(data[columnSize-1])
					data[columnSize-1] = byte(v)
				}
			}

			if aborted {
				continue
			}

			var result store.CommitResult
			if !tx.Commit(&result) {
				continue
			}
			if result != store.Committed {
				// A true return with any other code is a defect in the
				// store contract, not a retryable condition.
				panic("commit returned true with result " + result.String())
			}

			commitI++
			if usePeekOnly {
				scanned += task.Scan.ScannedPerCommit(task)
			}
			task.Latency.RecordValue(time.Since(attemptStart).Microseconds())
			break
		}
	}

	task.State = StateDraining
	task.DB.Deactivate(threadID)

	// The first worker to drain stops all still-active peers.
	epoch.SignalStop()
	task.State = StateStopped

	task.Committed = commitI
	task.Scanned = scanned
	task.EndTime = time.Now()
}
