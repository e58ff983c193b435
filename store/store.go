// Package store persists small blobs by key: oracle caches, preferences and search history.
//
// Several backends implement the same Store interface: an in-memory cache, a folder of JSON
// files, an SQLite database and a DynamoDB table. Encrypted wraps any of them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("not found")

// Store is a key value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// GetJSON reads key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and writes it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// Kind names a Store backend.
type Kind string

const (
	MemoryKind Kind = "memory"
	FileKind   Kind = "file"
	SQLiteKind Kind = "sqlite"
	DynamoKind Kind = "dynamo"
)

// Options selects and configures a backend.
type Options struct {
	Kind Kind
	// Path is the folder of a file store or the database file of an SQLite store.
	Path string
	// Table is the DynamoDB table name.
	Table string
	// Key is an optional fernet key, values are encrypted when set.
	Key string
}

// Open returns the Store described by opts. The returned close function releases the
// backend resources.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	var (
		s       Store
		closeFn = func() error { return nil }
	)
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case MemoryKind, "":
		s = NewMemory()
	case FileKind:
		f, err := NewFile(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		s = f
	case SQLiteKind:
		db, err := OpenSQLite(ctx, opts.Path)
		if err != nil {
			return nil, nil, err
		}
		s, closeFn = db, db.Close
	case DynamoKind:
		d, err := NewDynamo(ctx, opts.Table)
		if err != nil {
			return nil, nil, err
		}
		s = d
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", opts.Kind)
	}
	if opts.Key != "" {
		e, err := NewEncrypted(s, opts.Key)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		s = e
	}
	return s, closeFn, nil
}
