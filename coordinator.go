package txbench

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// Phase identifies one of the two sequential benchmark phases.
type Phase uint8

const (
	PhaseWarmup Phase = iota
	PhaseMeasured
)

func (self Phase) String() string {
	if self == PhaseWarmup {
		return "warm-up"
	}
	return "measured"
}

// EpochState is the shared per-phase state every worker coordinates
// through: the joined-thread counter gating the start barrier and the
// global stop flag. It is passed explicitly to every worker rather than
// living in package globals, and is reset once at the start of each phase.
type EpochState struct {
	joined atomic.Uint32
	stop   atomic.Bool
}

func NewEpochState() *EpochState {
	return &EpochState{}
}

// Reset prepares the state for a new phase. Must not be called while any
// worker of the previous phase is still running.
func (self *EpochState) Reset() {
	self.joined.Store(0)
	self.stop.Store(false)
}

// Join registers the calling worker and returns the new joined count. The
// count never exceeds the configured thread count.
func (self *EpochState) Join() uint32 {
	return self.joined.Inc()
}

func (self *EpochState) Joined() uint32 {
	return self.joined.Load()
}

// SignalStop fires the stop flag. The transition happens at most once per
// phase; later calls are no-ops.
func (self *EpochState) SignalStop() {
	self.stop.CAS(false, true)
}

func (self *EpochState) Stopped() bool {
	return self.stop.Load()
}

// RunPhase resets the shared state and runs every task's worker loop to
// completion, one long-running OS thread per task. Goroutine creation
// orders the phase configuration before any worker reads it; no further
// fence is needed.
func RunPhase(phase Phase, tasks []*Task, epoch *EpochState) {
	Verbosef("%s phase: %d workers", phase, len(tasks))
	epoch.Reset()
	for _, task := range tasks {
		task.ResetRunState()
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task *Task) {
			defer wg.Done()
			// Workers own their OS thread for the whole phase, the
			// closest analog to core pinning the runtime offers.
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			runWorker(task, epoch)
		}(task)
	}
	wg.Wait()
}
