package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/petasbytes/aichat/internal/safety"
)

// Bolt keeps every namespace as a bucket in a single bbolt file. The
// database stays open for the life of the process; call Close on shutdown.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error { return b.db.Close() }

func (b *Bolt) Load(ns, key string) ([]byte, error) {
	if err := validate(ns, key); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(ns))
		if bk == nil {
			return ErrNotFound
		}
		v := bk.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Save(ns, key string, data []byte) error {
	if err := validate(ns, key); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return err
		}
		return bk.Put([]byte(key), data)
	})
}

// validate applies the same key rules as Dir so both backends accept the
// same key space.
func validate(ns, key string) error {
	if err := safety.ValidateKey(ns); err != nil {
		return err
	}
	return safety.ValidateKey(key)
}
