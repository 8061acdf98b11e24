package service

import "lexisync/internal/domain"

// ClassifyInput is the snapshot a classification is computed from. Remote
// state changes asynchronously, so results are valid only for the inputs
// they were derived from and must be recomputed, never cached.
type ClassifyInput struct {
	ChangeCount    int
	WorkingEmpty   bool
	LastSyncedHash string
	Remote         domain.RemoteState
}

// Classify derives the sync state and the pending action. Pure and
// side-effect free; safe to call from any goroutine at any time.
func Classify(in ClassifyInput) domain.Classification {
	if !in.Remote.Exists {
		direction := domain.DirectionUpload
		if in.WorkingEmpty {
			direction = domain.DirectionNone
		}
		return domain.Classification{State: domain.StateLocalOnly, Direction: direction}
	}

	remoteMoved := in.Remote.Hash != in.LastSyncedHash

	switch {
	case in.ChangeCount > 0 && remoteMoved:
		return domain.Classification{State: domain.StateConflict, Direction: domain.DirectionMerge}
	case remoteMoved:
		return domain.Classification{State: domain.StateOutOfSync, Direction: domain.DirectionDownload}
	case in.ChangeCount > 0:
		return domain.Classification{State: domain.StateOutOfSync, Direction: domain.DirectionUpload}
	default:
		return domain.Classification{State: domain.StateSynced, Direction: domain.DirectionNone}
	}
}
