package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"lexisync/internal/domain"
	"lexisync/internal/remote"
	"lexisync/internal/repository"
	"lexisync/pkg/hash"
)

// Notifier receives push events for the UI layer. Implementations must not
// call back into the session from the notification path.
type Notifier interface {
	StateChanged(c domain.Classification)
	RemoteChanged(hash string)
	MergeRequired(conflictCount int)
}

// Session owns one dictionary, its ancestor snapshot, its lineage, and the
// last-known remote view. All access goes through the session mutex; the
// auth flow, the live-update channel, and user-initiated operations all
// touch this state concurrently.
//
// Network and store I/O happens outside the lock: operations snapshot state
// under the lock, perform I/O, then re-acquire the lock to commit. Classify
// and the change counters therefore never block on I/O.
type Session struct {
	mu           sync.Mutex
	working      domain.TranslationMap
	ancestor     domain.TranslationMap
	profile      domain.SyncProfile
	pendingMerge *domain.MergeResult
	finalizing   bool

	dictRepo    repository.DictionaryRepository
	profileRepo repository.ProfileRepository
	gateway     remote.Gateway
	notifier    Notifier
}

// NewSession loads persisted state, minting a fresh lineage identity on
// first run.
func NewSession(
	dictRepo repository.DictionaryRepository,
	profileRepo repository.ProfileRepository,
	gateway remote.Gateway,
	notifier Notifier,
) (*Session, error) {
	working, err := dictRepo.LoadWorking()
	if err != nil {
		return nil, fmt.Errorf("failed to load working dictionary: %w", err)
	}
	ancestor, err := dictRepo.LoadAncestor()
	if err != nil {
		return nil, fmt.Errorf("failed to load ancestor snapshot: %w", err)
	}

	profile, err := profileRepo.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load sync profile: %w", err)
	}
	if profile == nil {
		profile = &domain.SyncProfile{LineageID: uuid.New().String()}
		if err := profileRepo.Save(profile); err != nil {
			return nil, fmt.Errorf("failed to persist new lineage: %w", err)
		}
		log.Printf("[Session] minted lineage %s", profile.LineageID)
	}

	return &Session{
		working:     working,
		ancestor:    ancestor,
		profile:     *profile,
		dictRepo:    dictRepo,
		profileRepo: profileRepo,
		gateway:     gateway,
		notifier:    notifier,
	}, nil
}

// Classify derives the current sync state. Synchronous and free of I/O, so
// the UI may call it at any time. The result is a snapshot, not a
// subscription.
func (s *Session) Classify() domain.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classifyLocked()
}

func (s *Session) classifyLocked() domain.Classification {
	return Classify(ClassifyInput{
		ChangeCount:    CountChanges(s.working, s.ancestor),
		WorkingEmpty:   s.working.IsEmpty(),
		LastSyncedHash: s.profile.LastSyncedHash,
		Remote:         s.profile.Remote,
	})
}

func (s *Session) LocalChangeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CountChanges(s.working, s.ancestor)
}

func (s *Session) ChangedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Diff(s.working, s.ancestor)
}

func (s *Session) Dictionary() domain.TranslationMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// WorkingDigest is the content hash of the working copy, computed the same
// way the remote store hashes entries. Matching the remote hash means the
// copies are content-identical even when bookkeeping says otherwise.
func (s *Session) WorkingDigest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hash.Digest(s.working)
}

func (s *Session) Profile() domain.SyncProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// UpsertEntry writes one working-copy entry. This is the entry point for
// the host-application capture path and for manual edits from the UI.
func (s *Session) UpsertEntry(key string, entry domain.TranslationEntry) error {
	s.mu.Lock()
	updated := s.working.Clone()
	updated[key] = entry
	s.mu.Unlock()

	if err := s.dictRepo.SaveWorking(updated); err != nil {
		return err
	}

	s.mu.Lock()
	s.working = updated
	c := s.classifyLocked()
	s.mu.Unlock()

	s.notifier.StateChanged(c)
	return nil
}

func (s *Session) DeleteEntry(key string) error {
	s.mu.Lock()
	updated := s.working.Clone()
	delete(updated, key)
	s.mu.Unlock()

	if err := s.dictRepo.SaveWorking(updated); err != nil {
		return err
	}

	s.mu.Lock()
	s.working = updated
	c := s.classifyLocked()
	s.mu.Unlock()

	s.notifier.StateChanged(c)
	return nil
}

// ApplyRemoteHash records a hash-change notification from the live-update
// channel. It only invalidates the cached remote view; content is never
// applied here. An in-progress merge result is deliberately untouched.
func (s *Session) ApplyRemoteHash(hash string) {
	s.mu.Lock()
	if !s.profile.Remote.Exists || s.profile.Remote.Hash == hash {
		s.mu.Unlock()
		return
	}
	s.profile.Remote.Hash = hash
	profile := s.profile
	c := s.classifyLocked()
	s.mu.Unlock()

	if err := s.profileRepo.Save(&profile); err != nil {
		log.Printf("[Session] failed to persist remote hash update: %v", err)
	}

	s.notifier.RemoteChanged(hash)
	s.notifier.StateChanged(c)
}

// RefreshRemote re-reads ownership metadata from the remote store.
func (s *Session) RefreshRemote(ctx context.Context) (domain.RemoteState, error) {
	s.mu.Lock()
	lineageID := s.profile.LineageID
	s.mu.Unlock()

	state, err := s.gateway.CheckExistence(ctx, lineageID)
	if err != nil {
		return domain.RemoteState{}, err
	}

	s.mu.Lock()
	s.profile.Remote = state
	profile := s.profile
	c := s.classifyLocked()
	s.mu.Unlock()

	if err := s.profileRepo.Save(&profile); err != nil {
		return state, fmt.Errorf("failed to persist remote state: %w", err)
	}

	s.notifier.StateChanged(c)
	return state, nil
}

// Upload pushes the working copy to the remote store. A remote copy owned
// by someone else is never overwritten: the caller must contribute as a
// branch, download, or fork instead.
func (s *Session) Upload(ctx context.Context) (domain.RemoteState, error) {
	s.mu.Lock()
	if s.profile.Remote.Exists && !s.profile.Remote.IsOwner && s.profile.ParentLineage == "" {
		s.mu.Unlock()
		return domain.RemoteState{}, ErrNotOwner
	}
	snapshot := s.working.Clone()
	req := &remote.UploadRequest{
		LineageID:     s.profile.LineageID,
		SiteID:        s.profile.Remote.SiteID,
		ParentLineage: s.profile.ParentLineage,
		AsBranch:      s.profile.ParentLineage != "",
		Hash:          hash.Digest(snapshot),
		Entries:       snapshot,
	}
	s.mu.Unlock()

	state, err := s.gateway.Upload(ctx, req)
	if err != nil {
		return domain.RemoteState{}, err
	}

	if err := s.dictRepo.SaveAncestor(snapshot); err != nil {
		return state, fmt.Errorf("upload succeeded but snapshot persistence failed: %w", err)
	}

	s.mu.Lock()
	s.ancestor = snapshot
	s.profile.Remote = state
	s.profile.LastSyncedHash = state.Hash
	profile := s.profile
	c := s.classifyLocked()
	s.mu.Unlock()

	if err := s.profileRepo.Save(&profile); err != nil {
		return state, fmt.Errorf("failed to persist sync profile: %w", err)
	}

	s.notifier.StateChanged(c)
	return state, nil
}

// Download adopts the remote copy as both working copy and ancestor,
// discarding local changes. This is the contributor's "download latest"
// action as well as the ordinary out-of-sync pull.
func (s *Session) Download(ctx context.Context) (domain.RemoteState, error) {
	s.mu.Lock()
	remoteState := s.profile.Remote
	s.mu.Unlock()

	if !remoteState.Exists || remoteState.SiteID == "" {
		return domain.RemoteState{}, ErrRemoteMissing
	}

	dict, err := s.gateway.Download(ctx, remoteState.SiteID)
	if err != nil {
		return domain.RemoteState{}, err
	}

	if err := s.dictRepo.SaveWorking(dict.Entries); err != nil {
		return dict.State, fmt.Errorf("failed to persist downloaded dictionary: %w", err)
	}
	if err := s.dictRepo.SaveAncestor(dict.Entries); err != nil {
		return dict.State, fmt.Errorf("failed to persist ancestor snapshot: %w", err)
	}

	s.mu.Lock()
	s.working = dict.Entries.Clone()
	s.ancestor = dict.Entries.Clone()
	s.profile.Remote = dict.State
	s.profile.LastSyncedHash = dict.State.Hash
	s.pendingMerge = nil
	profile := s.profile
	c := s.classifyLocked()
	s.mu.Unlock()

	if err := s.profileRepo.Save(&profile); err != nil {
		return dict.State, fmt.Errorf("failed to persist sync profile: %w", err)
	}

	s.notifier.StateChanged(c)
	return dict.State, nil
}

// Fork severs the lineage: a fresh identity, no remote copy, no parent.
// The working dictionary is preserved unchanged. Irreversible.
func (s *Session) Fork() (string, error) {
	newLineage := uuid.New().String()

	if err := s.dictRepo.SaveAncestor(domain.TranslationMap{}); err != nil {
		return "", fmt.Errorf("failed to clear ancestor snapshot: %w", err)
	}

	s.mu.Lock()
	s.profile = domain.SyncProfile{
		LineageID: newLineage,
		Remote:    domain.RemoteState{Exists: false},
	}
	s.ancestor = domain.TranslationMap{}
	s.pendingMerge = nil
	profile := s.profile
	c := s.classifyLocked()
	s.mu.Unlock()

	if err := s.profileRepo.Save(&profile); err != nil {
		return newLineage, fmt.Errorf("failed to persist forked lineage: %w", err)
	}

	log.Printf("[Session] forked to lineage %s", newLineage)
	s.notifier.StateChanged(c)
	return newLineage, nil
}

// PromoteAsBranch marks the local lineage as dependent on parentLineage.
// Subsequent uploads are recorded as contributions, not as the Main.
func (s *Session) PromoteAsBranch(parentLineage string) error {
	s.mu.Lock()
	s.profile.ParentLineage = parentLineage
	profile := s.profile
	s.mu.Unlock()

	if err := s.profileRepo.Save(&profile); err != nil {
		return fmt.Errorf("failed to persist branch promotion: %w", err)
	}
	return nil
}

// ContributorOptions surfaces the three legal transitions when the remote
// copy exists under this lineage but belongs to someone else.
func (s *Session) ContributorOptions() (*domain.ContributorOptionsResponse, error) {
	s.mu.Lock()
	remoteState := s.profile.Remote
	s.mu.Unlock()

	if !remoteState.Exists || remoteState.IsOwner {
		return nil, &InvariantError{Op: "contributor_options", Detail: "session is not in the contributor state"}
	}

	return &domain.ContributorOptionsResponse{
		OwnerName: remoteState.OwnerName,
		Actions: []domain.ContributorAction{
			domain.ActionContributeBranch,
			domain.ActionDownloadLatest,
			domain.ActionFork,
		},
	}, nil
}

// StartMerge downloads the remote content and runs the three-way merge
// against the working copy and the ancestor snapshot. The result is held
// as the session's pending merge until resolved or superseded.
func (s *Session) StartMerge(ctx context.Context) (*domain.MergeResult, error) {
	s.mu.Lock()
	remoteState := s.profile.Remote
	s.mu.Unlock()

	if !remoteState.Exists || remoteState.SiteID == "" {
		return nil, ErrRemoteMissing
	}

	dict, err := s.gateway.Download(ctx, remoteState.SiteID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	result := Merge(s.working, dict.Entries, s.ancestor)
	s.pendingMerge = result
	s.profile.Remote = dict.State
	s.mu.Unlock()

	if result.HasConflicts() {
		s.notifier.MergeRequired(len(result.Conflicts))
	}

	return copyMergeResult(result), nil
}

// PendingMerge returns a copy of the outstanding merge result, or nil.
func (s *Session) PendingMerge() *domain.MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingMerge == nil {
		return nil
	}
	return copyMergeResult(s.pendingMerge)
}

// Resolve applies user choices to the pending merge. Once every conflict
// is resolved the merged map is persisted and becomes the working copy. At
// most one resolution call is in flight per session; bookkeeping is only
// committed after persistence succeeds, so a failed write never leaves a
// conflict marked resolved.
func (s *Session) Resolve(resolutions map[string]domain.ConflictResolution) (*domain.MergeResult, error) {
	s.mu.Lock()
	if s.pendingMerge == nil {
		s.mu.Unlock()
		return nil, ErrNoPendingMerge
	}
	if s.finalizing {
		s.mu.Unlock()
		return nil, ErrResolveInFlight
	}
	s.finalizing = true
	scratch := copyMergeResult(s.pendingMerge)
	s.mu.Unlock()

	ApplyResolutions(scratch, resolutions)

	if scratch.HasConflicts() {
		// Partial resolution: nothing to persist yet, just commit the
		// bookkeeping.
		s.mu.Lock()
		s.pendingMerge = scratch
		s.finalizing = false
		s.mu.Unlock()
		return copyMergeResult(scratch), nil
	}

	if err := s.dictRepo.SaveWorking(scratch.Merged); err != nil {
		s.mu.Lock()
		s.finalizing = false
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to persist merged dictionary: %w", err)
	}

	s.mu.Lock()
	s.working = scratch.Merged.Clone()
	s.pendingMerge = nil
	s.finalizing = false
	c := s.classifyLocked()
	s.mu.Unlock()

	s.notifier.StateChanged(c)
	return copyMergeResult(scratch), nil
}

func copyMergeResult(result *domain.MergeResult) *domain.MergeResult {
	conflicts := make([]domain.MergeConflict, len(result.Conflicts))
	copy(conflicts, result.Conflicts)
	return &domain.MergeResult{
		Merged:        result.Merged.Clone(),
		Conflicts:     conflicts,
		ResolvedCount: result.ResolvedCount,
	}
}
