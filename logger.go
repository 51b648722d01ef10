package txbench

import (
	"github.com/hhkbp2/txbench/store"
)

// VerificationLogger is the store logger variant that captures one
// TransactionSnapshot per commit into the committing worker's task. Each
// Record call touches only the calling worker's own task, so no
// synchronization is needed beyond what the store's commit path already
// provides.
//
// The variant is chosen at construction by injecting it into the DB; the
// default is the store's no-op logger.
type VerificationLogger struct {
	tasks []*Task
}

func NewVerificationLogger() *VerificationLogger {
	return &VerificationLogger{}
}

// SetupTasks binds the logger to the per-worker tasks. Must be called
// before any worker starts.
func (self *VerificationLogger) SetupTasks(tasks []*Task) {
	self.tasks = tasks
}

func (self *VerificationLogger) Record(tx *store.Transaction) bool {
	if self.tasks == nil {
		return true
	}
	threadID := uint64(tx.ThreadID())
	if threadID >= uint64(len(self.tasks)) {
		// Commits outside the worker set (population) are not logged.
		return true
	}
	task := self.tasks[threadID]
	task.History = append(task.History, TransactionSnapshot{
		ThreadID:    threadID,
		TxIndex:     task.TxIndex,
		CommitIndex: task.CommitIndex,
	})
	return true
}
