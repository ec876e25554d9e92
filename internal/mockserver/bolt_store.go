package mockserver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const recordBucket = "records"

// boltStore implements a Store backed by BoltDB, giving the mock server a
// state that survives restarts. BoltDB keeps keys byte-ordered, so range
// scans map directly onto a cursor walk.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(recordBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		if bucket == nil {
			return fmt.Errorf("record bucket missing")
		}
		if data := bucket.Get([]byte(key)); data != nil {
			value = string(data)
			ok = true
		}
		return nil
	})
	return value, ok, err
}

func (b *boltStore) Put(key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		if bucket == nil {
			return fmt.Errorf("record bucket missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

func (b *boltStore) Delete(key string) (bool, error) {
	var existed bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		if bucket == nil {
			return fmt.Errorf("record bucket missing")
		}
		k := []byte(key)
		if bucket.Get(k) == nil {
			return nil
		}
		existed = true
		return bucket.Delete(k)
	})
	return existed, err
}

func (b *boltStore) Range(startKey, endKey string, limit int) ([]Record, bool, error) {
	var (
		records   []Record
		truncated bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		if bucket == nil {
			return fmt.Errorf("record bucket missing")
		}

		end := []byte(endKey)
		cursor := bucket.Cursor()
		for k, v := cursor.Seek([]byte(startKey)); k != nil && bytes.Compare(k, end) <= 0; k, v = cursor.Next() {
			if limit > 0 && len(records) == limit {
				truncated = true
				return nil
			}
			records = append(records, Record{Key: string(k), Value: string(v)})
		}
		return nil
	})
	return records, truncated, err
}
