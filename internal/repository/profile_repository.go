package repository

import (
	"context"
	"fmt"

	"github.com/go-kivik/kivik/v4"

	"lexisync/internal/domain"
)

// ProfileRepository persists the sync profile: lineage identity, last
// synced hash, and the last-known remote view.
type ProfileRepository interface {
	Load() (*domain.SyncProfile, error)
	Save(profile *domain.SyncProfile) error
}

const profileDocID = "sync:profile"

type profileRepository struct {
	client *kivik.Client
	dbName string
}

func NewProfileRepository(client *kivik.Client, dbName string) ProfileRepository {
	return &profileRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *profileRepository) Load() (*domain.SyncProfile, error) {
	db := r.client.DB(r.dbName)

	var doc struct {
		Profile domain.SyncProfile `json:"profile"`
	}
	row := db.Get(context.Background(), profileDocID)
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load sync profile: %w", err)
	}

	return &doc.Profile, nil
}

func (r *profileRepository) Save(profile *domain.SyncProfile) error {
	db := r.client.DB(r.dbName)

	doc := map[string]interface{}{
		"_id":     profileDocID,
		"profile": profile,
	}

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), profileDocID)
	if err := row.ScanDoc(&existingDoc); err == nil {
		doc["_rev"] = existingDoc["_rev"]
	}

	if _, err := db.Put(context.Background(), profileDocID, doc); err != nil {
		return fmt.Errorf("failed to save sync profile: %w", err)
	}

	return nil
}
