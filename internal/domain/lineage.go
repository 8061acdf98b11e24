package domain

// Role describes how the local client relates to the remote copy of its
// lineage.
type Role string

const (
	RoleMain   Role = "main"
	RoleBranch Role = "branch"
	RoleNone   Role = "none"
)

// RemoteState is the client's last-known view of the remote copy. It goes
// stale whenever the live-update channel reports a change or an upload or
// download completes; callers must treat it as a snapshot.
type RemoteState struct {
	Exists          bool   `json:"exists"`
	SiteID          string `json:"site_id,omitempty"`
	Hash            string `json:"hash,omitempty"`
	IsOwner         bool   `json:"is_owner"`
	OwnerName       string `json:"owner_name,omitempty"`
	ParentOwnerName string `json:"parent_owner_name,omitempty"`
	DependentCount  int    `json:"dependent_count"`
}

// Role derives the local role from ownership and parent linkage. Main
// requires ownership without a recorded parent lineage; Branch requires
// ownership with one.
func (r RemoteState) Role() Role {
	if !r.Exists || !r.IsOwner {
		return RoleNone
	}
	if r.ParentOwnerName != "" {
		return RoleBranch
	}
	return RoleMain
}

// ContributorAction is one of the three legal transitions when the remote
// copy exists under the local lineage but belongs to someone else.
type ContributorAction string

const (
	ActionContributeBranch ContributorAction = "contribute_branch"
	ActionDownloadLatest   ContributorAction = "download_latest"
	ActionFork             ContributorAction = "fork"
)

// SyncProfile is the persisted identity and sync bookkeeping of a session:
// the stable lineage identifier, the hash recorded at the last successful
// synchronization, and the last-known remote view.
type SyncProfile struct {
	LineageID      string      `json:"lineage_id"`
	ParentLineage  string      `json:"parent_lineage,omitempty"`
	LastSyncedHash string      `json:"last_synced_hash,omitempty"`
	Remote         RemoteState `json:"remote"`
}
