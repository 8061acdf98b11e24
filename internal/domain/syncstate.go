package domain

// SyncState classifies the relation between the working copy, the ancestor
// snapshot, and the last-known remote view.
type SyncState string

const (
	StateSynced    SyncState = "synced"
	StateLocalOnly SyncState = "local_only"
	StateOutOfSync SyncState = "out_of_sync"
	StateConflict  SyncState = "conflict"
)

// PendingDirection is the action the classification calls for.
type PendingDirection string

const (
	DirectionNone     PendingDirection = "none"
	DirectionUpload   PendingDirection = "upload"
	DirectionDownload PendingDirection = "download"
	DirectionMerge    PendingDirection = "merge"
)

// Classification is a point-in-time result. It is valid only as of the
// inputs used to compute it; a hash-change event invalidates it.
type Classification struct {
	State     SyncState        `json:"state"`
	Direction PendingDirection `json:"direction"`
}
