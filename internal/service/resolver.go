package service

import (
	"log"

	"lexisync/internal/domain"
)

// ApplyResolutions applies per-key choices to a merge result, mutating it
// in place. KeepLocal takes the local entry (removal if the local side was
// a deletion), TakeRemote is symmetric, KeepBoth aliases KeepLocal. Each
// applied conflict leaves the conflict list and bumps ResolvedCount.
// Resolutions naming keys with no pending conflict are invariant
// violations: logged and skipped, never fatal.
//
// Conflicts without a supplied resolution stay in the list; callers must
// not finalize while it is non-empty.
func ApplyResolutions(result *domain.MergeResult, resolutions map[string]domain.ConflictResolution) {
	for key, choice := range resolutions {
		if result.Conflict(key) == nil {
			err := &InvariantError{Op: "resolve", Detail: "no pending conflict for key " + key}
			log.Printf("[Resolver] %v", err)
			continue
		}
		if !choice.IsValid() {
			err := &InvariantError{Op: "resolve", Detail: "unknown resolution " + string(choice)}
			log.Printf("[Resolver] %v", err)
			continue
		}
	}

	remaining := result.Conflicts[:0]
	for _, conflict := range result.Conflicts {
		choice, ok := resolutions[conflict.Key]
		if !ok || !choice.IsValid() {
			remaining = append(remaining, conflict)
			continue
		}

		applyChoice(result.Merged, conflict, choice)
		result.ResolvedCount++
	}
	result.Conflicts = remaining
}

func applyChoice(merged domain.TranslationMap, conflict domain.MergeConflict, choice domain.ConflictResolution) {
	var winner *domain.TranslationEntry
	switch choice {
	case domain.ResolutionTakeRemote:
		winner = conflict.Remote
	case domain.ResolutionKeepLocal, domain.ResolutionKeepBoth:
		winner = conflict.Local
	}

	if winner == nil {
		// The chosen side deleted the key.
		delete(merged, conflict.Key)
		return
	}
	merged[conflict.Key] = *winner
}
