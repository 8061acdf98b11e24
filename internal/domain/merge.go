package domain

type ConflictResolution string

const (
	ResolutionKeepLocal  ConflictResolution = "keep_local"
	ResolutionTakeRemote ConflictResolution = "take_remote"
	// ResolutionKeepBoth behaves as keep_local: entries are atomic, so there
	// is no value to combine. The name survives for API compatibility.
	ResolutionKeepBoth ConflictResolution = "keep_both"
)

func (r ConflictResolution) IsValid() bool {
	switch r {
	case ResolutionKeepLocal, ResolutionTakeRemote, ResolutionKeepBoth:
		return true
	default:
		return false
	}
}

// MergeConflict records one key that changed on both sides relative to the
// ancestor. A nil side means that side deleted the key (or never had it).
type MergeConflict struct {
	Key    string            `json:"key"`
	Local  *TranslationEntry `json:"local,omitempty"`
	Remote *TranslationEntry `json:"remote,omitempty"`
}

// MergeResult is the output of a three-way merge. Merged carries the
// take-remote provisional value for every conflicted key, so it is fully
// populated while conflicts are pending; it is final only once Conflicts is
// empty.
type MergeResult struct {
	Merged        TranslationMap  `json:"merged"`
	Conflicts     []MergeConflict `json:"conflicts"`
	ResolvedCount int             `json:"resolved_count"`
}

func (r *MergeResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Conflict returns the pending conflict for key, or nil.
func (r *MergeResult) Conflict(key string) *MergeConflict {
	for i := range r.Conflicts {
		if r.Conflicts[i].Key == key {
			return &r.Conflicts[i]
		}
	}
	return nil
}
