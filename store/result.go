package store

// Result domains for store operations. Each operation has its own typed
// result so "not found" is never conflated with "must abort": the former is
// a data condition, the latter a concurrency-control verdict.

// LookupResult is the outcome domain of a unique-index lookup.
type LookupResult uint8

const (
	LookupNotFound LookupResult = iota
	LookupFound
	LookupAbort
)

func (self LookupResult) String() string {
	switch self {
	case LookupNotFound:
		return "NOT_FOUND"
	case LookupFound:
		return "FOUND"
	case LookupAbort:
		return "MUST_ABORT"
	default:
		return "UNKNOWN_LOOKUP_RESULT"
	}
}

// InsertResult is the outcome domain of a unique-index insert.
type InsertResult uint8

const (
	InsertDone InsertResult = iota
	InsertDuplicate
	InsertAbort
)

func (self InsertResult) String() string {
	switch self {
	case InsertDone:
		return "INSERTED"
	case InsertDuplicate:
		return "DUPLICATE"
	case InsertAbort:
		return "MUST_ABORT"
	default:
		return "UNKNOWN_INSERT_RESULT"
	}
}

// CommitResult is the outcome domain of Transaction.Commit. A true return
// from Commit must carry Committed; any other code alongside a true return
// is a contract defect between the store and its caller.
type CommitResult uint8

const (
	Committed CommitResult = iota
	AbortedByValidation
	AbortedByWriteLock
	AbortedByLogger
)

func (self CommitResult) String() string {
	switch self {
	case Committed:
		return "COMMITTED"
	case AbortedByValidation:
		return "ABORTED_BY_VALIDATION"
	case AbortedByWriteLock:
		return "ABORTED_BY_WRITE_LOCK"
	case AbortedByLogger:
		return "ABORTED_BY_LOGGER"
	default:
		return "UNKNOWN_COMMIT_RESULT"
	}
}
