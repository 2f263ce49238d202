package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps documents as JSON records in a bbolt database, one bucket
// per kind, keyed by id.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, kind := range Kinds {
			if _, err := tx.CreateBucketIfNotExists([]byte(kind)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize bolt store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get decodes the record stored under kind and id.
func (s *BoltStore) Get(ctx context.Context, kind Kind, id string) (*Document, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var doc Document
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(kind))
		if b == nil {
			return fmt.Errorf("unknown document kind %q", kind)
		}
		v := b.Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Put stores doc, stamping the current time when GeneratedAt is zero.
func (s *BoltStore) Put(ctx context.Context, doc *Document) error {
	if err := ValidateID(doc.ID); err != nil {
		return err
	}
	rec := *doc
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now()
	}
	v, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(doc.Kind))
		if b == nil {
			return fmt.Errorf("unknown document kind %q", doc.Kind)
		}
		return b.Put([]byte(doc.ID), v)
	})
}

// List returns every record, ordered by kind then id.
func (s *BoltStore) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := s.db.View(func(tx *bolt.Tx) error {
		// Buckets iterate in byte order, which is also Kind order.
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			return b.ForEach(func(k, v []byte) error {
				var doc Document
				if err := json.Unmarshal(v, &doc); err != nil {
					return fmt.Errorf("decode %s/%s: %w", name, k, err)
				}
				infos = append(infos, Info{
					Kind:        Kind(name),
					ID:          string(k),
					Size:        int64(len(doc.Text)),
					GeneratedAt: doc.GeneratedAt,
				})
				return nil
			})
		})
	})
	return infos, err
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
