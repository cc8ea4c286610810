package ingest

import "fmt"

// DuplicateCommitError reports a commit whose sha is already present in the
// store. Re-ingesting a commit is a no-op that is reported, not retried.
type DuplicateCommitError struct {
	SHA string
}

func (e *DuplicateCommitError) Error() string {
	return fmt.Sprintf("commit %s already ingested", e.SHA)
}

// OrderingViolationError reports a commit whose declared parent has not been
// ingested. The commit is rejected rather than silently reordered.
type OrderingViolationError struct {
	SHA           string
	MissingParent string
}

func (e *OrderingViolationError) Error() string {
	return fmt.Sprintf("commit %s arrived before its parent %s", e.SHA, e.MissingParent)
}
