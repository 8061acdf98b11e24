package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOwner rejects an upload that would overwrite a Main owned by
	// someone else. The caller must pick one of the contributor actions.
	ErrNotOwner = errors.New("remote copy is owned by another user")

	// ErrResolveInFlight rejects a second merge finalization while one is
	// outstanding.
	ErrResolveInFlight = errors.New("merge finalization already in progress")

	// ErrNoPendingMerge is returned when resolutions arrive without a
	// started merge.
	ErrNoPendingMerge = errors.New("no merge in progress")

	// ErrUnresolvedConflicts blocks finalization while conflicts remain.
	ErrUnresolvedConflicts = errors.New("merge result still has unresolved conflicts")

	// ErrRemoteMissing is returned by download when the remote copy does
	// not exist.
	ErrRemoteMissing = errors.New("no remote copy exists for this lineage")
)

// InvariantError marks a programming error, such as resolving a key that is
// not part of the pending conflict set. Callers log and skip it rather than
// abort the surrounding operation.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}
