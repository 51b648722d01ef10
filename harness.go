package txbench

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/hhkbp2/txbench/store"
)

const (
	tableName = "main"
	indexName = "main_idx"
	// Rows inserted per population transaction.
	populateBatchSize = 16
	// Loader workers used to populate the table.
	populateThreads = uint64(2)
)

// Harness owns one benchmark run: the store, the populated table and
// index, and the per-worker tasks. Build it with NewHarness, then call Run.
type Harness struct {
	cfg    *BenchConfig
	db     *store.DB
	tbl    *store.Table
	idx    store.Index
	logger store.Logger
	tasks  []*Task
}

// NewHarness creates the store, table and index and populates NumRows rows.
// logger is injected into the store at construction; nil selects the no-op
// variant. Errors here are fatal setup conditions: no worker has started.
func NewHarness(cfg *BenchConfig, logger store.Logger) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db := store.NewDB(logger, uint16(cfg.ThreadCount))
	if _, err := db.CreateTable(tableName, cfg.DataSize); err != nil {
		return nil, err
	}
	tbl := db.GetTable(tableName)
	var err error
	switch cfg.IndexKind {
	case IndexHash:
		_, err = db.CreateHashIndex(indexName, tbl, cfg.NumRows)
	case IndexOrdered:
		_, err = db.CreateOrderedIndex(indexName, tbl)
	}
	if err != nil {
		return nil, err
	}
	idx := db.GetIndex(indexName)

	self := &Harness{
		cfg:    cfg,
		db:     db,
		tbl:    tbl,
		idx:    idx,
		logger: logger,
	}
	if err := self.populate(); err != nil {
		return nil, err
	}
	return self, nil
}

func (self *Harness) DB() *store.DB {
	return self.db
}

func (self *Harness) Table() *store.Table {
	return self.tbl
}

func (self *Harness) Index() store.Index {
	return self.idx
}

func (self *Harness) Tasks() []*Task {
	return self.tasks
}

// populate inserts the configured rows with a shuffled key order so the
// physical data layout is decorrelated from the logical key space, batched
// to keep transaction overhead down. Each loader owns a disjoint key slice.
func (self *Harness) populate() error {
	cfg := self.cfg
	loaderCount := populateThreads
	if cfg.ThreadCount < loaderCount {
		loaderCount = cfg.ThreadCount
	}

	var wg sync.WaitGroup
	for loaderID := uint64(0); loaderID < loaderCount; loaderID++ {
		wg.Add(1)
		go func(loaderID uint64) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			self.db.Activate(uint16(loaderID))
			defer self.db.Deactivate(uint16(loaderID))

			// Shuffle this loader's keys to randomize the layout.
			random := rand.New(rand.NewSource(int64(loaderID)))
			keys := make([]uint64, 0, (cfg.NumRows+loaderCount-1)/loaderCount)
			for key := loaderID; key < cfg.NumRows; key += loaderCount {
				keys = append(keys, key)
			}
			random.Shuffle(len(keys), func(i, j int) {
				keys[i], keys[j] = keys[j], keys[i]
			})

			tx := store.NewTransaction(self.db, uint16(loaderID))
			for i := 0; i < len(keys); i += populateBatchSize {
				end := i + populateBatchSize
				if end > len(keys) {
					end = len(keys)
				}
				// Aborts are transient (a vetoed or conflicting commit);
				// the abort rolls the batch's rows and index entries
				// back, so the whole batch is simply retried.
				for {
					if !tx.Begin(false) {
						continue
					}
					aborted := false
					for _, key := range keys[i:end] {
						rah := store.NewRowAccess(tx)
						if !rah.NewRow(self.tbl, 0, cfg.DataSize) {
							tx.Abort()
							aborted = true
							break
						}
						if self.idx != nil {
							ret := self.idx.Insert(tx, key, rah.RowID())
							if ret != store.InsertDone {
								tx.Abort()
								aborted = true
								break
							}
						}
					}
					if aborted {
						continue
					}
					var result store.CommitResult
					if !tx.Commit(&result) {
						continue
					}
					break
				}
			}
		}(loaderID)
	}
	wg.Wait()

	if got := self.tbl.RowCount(); got != cfg.NumRows {
		return store.NewStoreErrorf("populated %d rows, want %d", got, cfg.NumRows)
	}
	return nil
}

// Run executes the warm-up phase followed by the measured phase and returns
// the measured-phase results.
func (self *Harness) Run() *Results {
	cfg := self.cfg
	self.tasks = make([]*Task, 0, cfg.ThreadCount)
	for threadID := uint64(0); threadID < cfg.ThreadCount; threadID++ {
		self.tasks = append(self.tasks, NewTask(cfg, self.db, self.tbl, self.idx, threadID))
	}
	if vl, ok := self.logger.(*VerificationLogger); ok {
		vl.SetupTasks(self.tasks)
	}

	epoch := NewEpochState()
	for _, phase := range []Phase{PhaseWarmup, PhaseMeasured} {
		Statusf("%s phase starting", phase)
		RunPhase(phase, self.tasks, epoch)
		Statusf("%s phase done", phase)
	}
	return AggregateResults(self.tasks)
}
