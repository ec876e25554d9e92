package mockserver

import (
	"fmt"
	"strings"
)

// Record is a stored key/value pair.
type Record struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store persists records for the mock server. Values are opaque text; range
// scans are inclusive on both bounds and ordered lexicographically by key.
type Store interface {
	Close() error
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	Delete(key string) (ok bool, err error)
	Range(startKey, endKey string, limit int) (records []Record, truncated bool, err error)
}

// NewStore creates the configured store backend.
func NewStore(typ, path string) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", "memory":
		return newMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt store requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported store type %q", typ)
	}
}
