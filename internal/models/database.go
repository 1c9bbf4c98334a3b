package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// RunHistoryLimit bounds how many finalized runs are retained
const RunHistoryLimit = 50

// Database wraps the bolthold store holding run history and credentials
type Database struct {
	store *bolthold.Store
}

// NewDatabase opens the database at the given path
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database
func (db *Database) Close() error {
	return db.store.Close()
}

// Run history operations

// SaveRun persists a finalized sync run and prunes history beyond the limit
func (db *Database) SaveRun(run *SyncRun) error {
	if err := db.store.Insert(bolthold.NextSequence(), run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return db.pruneRuns()
}

// GetRuns returns retained runs, most recent first
func (db *Database) GetRuns() ([]*SyncRun, error) {
	var runs []*SyncRun
	if err := db.store.Find(&runs, nil); err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// LastRun returns the most recent run, or nil when history is empty
func (db *Database) LastRun() (*SyncRun, error) {
	runs, err := db.GetRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (db *Database) pruneRuns() error {
	runs, err := db.GetRuns()
	if err != nil {
		return err
	}

	for _, old := range runs[min(len(runs), RunHistoryLimit):] {
		if err := db.store.Delete(old.ID, old); err != nil {
			return fmt.Errorf("failed to prune run %d: %w", old.ID, err)
		}
	}
	return nil
}

// Credential operations (CredentialStore implementation)

// GetCredential retrieves the stored credential for a service
func (db *Database) GetCredential(service Service) (*Credential, error) {
	var cred Credential
	err := db.store.Get(service, &cred)
	if err == bolthold.ErrNotFound {
		return nil, fmt.Errorf("no credential stored for %s", service)
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// PutCredential stores or replaces the credential for a service
func (db *Database) PutCredential(cred *Credential) error {
	cred.UpdatedAt = time.Now()
	return db.store.Upsert(cred.Service, cred)
}

// ClearCredential removes the stored credential for a service
func (db *Database) ClearCredential(service Service) error {
	err := db.store.Delete(service, &Credential{})
	if err == bolthold.ErrNotFound {
		return nil
	}
	return err
}
