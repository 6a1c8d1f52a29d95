package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "refdata/"

// snapshot is the stored record format.
type snapshot struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Data      json.RawMessage `json:"data"`
}

// BadgerBackend persists reference-data snapshots in a local BadgerDB,
// so short-lived CLI processes can reuse reference lists fetched by a
// previous invocation.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the snapshot database under dataDir.
func OpenBadger(dataDir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(filepath.Join(dataDir, "refdata"))
	opts.Logger = nil // Badger's own logging is noise in a CLI

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open refdata db: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// Load returns the snapshot stored under key.
func (b *BadgerBackend) Load(key string) ([]byte, time.Time, error) {
	var snap snapshot
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, time.Time{}, ErrNotCached
		}
		return nil, time.Time{}, fmt.Errorf("failed to load snapshot %q: %w", key, err)
	}
	return snap.Data, snap.FetchedAt, nil
}

// Save stores a snapshot under key, replacing any previous one.
func (b *BadgerBackend) Save(key string, data []byte, fetchedAt time.Time) error {
	encoded, err := json.Marshal(snapshot{FetchedAt: fetchedAt, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", key, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot %q: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot stored under key.
func (b *BadgerBackend) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
