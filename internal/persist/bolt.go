package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/moorebrett0/gremlin/internal/store"
)

const petBucket = "pets"

// BoltGateway stores one JSON record per owner in a BoltDB bucket.
type BoltGateway struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) a BoltDB file at path.
func OpenBolt(path string) (*BoltGateway, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	return &BoltGateway{db: db}, nil
}

// Close closes the underlying BoltDB database.
func (g *BoltGateway) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}

// Load reads every record. A database without the bucket is an empty store.
func (g *BoltGateway) Load(ctx context.Context) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []store.Entry
	err := g.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(petBucket))
		if bucket == nil {
			return nil
		}
		// Keys iterate in byte order, which matches store.Snapshot ordering.
		return bucket.ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("%w: owner %s: %v", ErrMalformed, k, err)
			}
			p, err := Decode(string(k), r)
			if err != nil {
				return err
			}
			entries = append(entries, store.Entry{Owner: string(k), Pet: p})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces the bucket contents in a single transaction.
func (g *BoltGateway) Save(ctx context.Context, entries []store.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return g.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(petBucket)) != nil {
			if err := tx.DeleteBucket([]byte(petBucket)); err != nil {
				return fmt.Errorf("clear pet bucket: %w", err)
			}
		}
		bucket, err := tx.CreateBucket([]byte(petBucket))
		if err != nil {
			return fmt.Errorf("create pet bucket: %w", err)
		}
		for _, e := range entries {
			payload, err := json.Marshal(Encode(e.Pet))
			if err != nil {
				return fmt.Errorf("marshal pet %s: %w", e.Owner, err)
			}
			if err := bucket.Put([]byte(e.Owner), payload); err != nil {
				return fmt.Errorf("put pet %s: %w", e.Owner, err)
			}
		}
		return nil
	})
}
