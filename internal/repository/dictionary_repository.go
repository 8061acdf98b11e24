package repository

import (
	"context"
	"fmt"

	"github.com/go-kivik/kivik/v4"

	"lexisync/internal/domain"
)

// DictionaryRepository persists the working translation map and the
// ancestor snapshot. The snapshot is written only by synchronization
// operations that completed successfully.
type DictionaryRepository interface {
	LoadWorking() (domain.TranslationMap, error)
	SaveWorking(m domain.TranslationMap) error
	LoadAncestor() (domain.TranslationMap, error)
	SaveAncestor(m domain.TranslationMap) error
}

const (
	workingDocID  = "dictionary:working"
	ancestorDocID = "dictionary:ancestor"
)

type dictionaryRepository struct {
	client *kivik.Client
	dbName string
}

func NewDictionaryRepository(client *kivik.Client, dbName string) DictionaryRepository {
	return &dictionaryRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *dictionaryRepository) LoadWorking() (domain.TranslationMap, error) {
	return r.load(workingDocID)
}

func (r *dictionaryRepository) SaveWorking(m domain.TranslationMap) error {
	return r.save(workingDocID, m)
}

func (r *dictionaryRepository) LoadAncestor() (domain.TranslationMap, error) {
	return r.load(ancestorDocID)
}

func (r *dictionaryRepository) SaveAncestor(m domain.TranslationMap) error {
	return r.save(ancestorDocID, m)
}

func (r *dictionaryRepository) load(docID string) (domain.TranslationMap, error) {
	db := r.client.DB(r.dbName)

	var doc struct {
		Entries domain.TranslationMap `json:"entries"`
	}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return domain.TranslationMap{}, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", docID, err)
	}

	if doc.Entries == nil {
		doc.Entries = domain.TranslationMap{}
	}
	return doc.Entries, nil
}

func (r *dictionaryRepository) save(docID string, m domain.TranslationMap) error {
	db := r.client.DB(r.dbName)

	doc := map[string]interface{}{
		"_id":     docID,
		"entries": m,
	}

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err == nil {
		doc["_rev"] = existingDoc["_rev"]
	}

	if _, err := db.Put(context.Background(), docID, doc); err != nil {
		return fmt.Errorf("failed to save %s: %w", docID, err)
	}

	return nil
}
