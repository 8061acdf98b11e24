package domain

// Request and response bodies for the loopback API.

type UpsertEntryRequest struct {
	Text string `json:"text" validate:"required"`
	Tag  Tag    `json:"tag" validate:"omitempty,oneof=ai human validated unknown"`
}

type ResolveRequest struct {
	Resolutions map[string]ConflictResolution `json:"resolutions" validate:"required,min=1,dive,oneof=keep_local take_remote keep_both"`
}

type PromoteBranchRequest struct {
	ParentLineage string `json:"parent_lineage" validate:"required"`
}

type StateResponse struct {
	Classification Classification `json:"classification"`
	ChangeCount    int            `json:"change_count"`
	Role           Role           `json:"role"`
	Remote         RemoteState    `json:"remote"`
	LineageID      string         `json:"lineage_id"`
	WorkingHash    string         `json:"working_hash"`
}

type ChangesResponse struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

type SyncResponse struct {
	Remote         RemoteState    `json:"remote"`
	Classification Classification `json:"classification"`
}

type ContributorOptionsResponse struct {
	OwnerName string              `json:"owner_name"`
	Actions   []ContributorAction `json:"actions"`
}

type BeginLoginResponse struct {
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
}

type AuthStatusResponse struct {
	Phase    AuthPhase `json:"phase"`
	Username string    `json:"username,omitempty"`
}
