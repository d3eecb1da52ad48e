package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidKey  = errors.New("invalid key")
)

// keyPrefix namespaces response entries so Purge never touches anything else
const keyPrefix = "resp:"

// Store is a BadgerDB-backed cache of response bodies
type Store struct {
	db *badger.DB
}

// Open creates a disk-backed cache at path
func Open(path string) (*Store, error) {
	return open(badger.DefaultOptions(path))
}

// OpenMemory creates a cache that lives only in memory
func OpenMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	opts.Logger = nil // Disable logging for cleaner output

	// A response cache holds small, short-lived values
	opts.NumVersionsToKeep = 1
	opts.ValueThreshold = 1024
	opts.MemTableSize = 16 << 20
	opts.BlockCacheSize = 32 << 20
	opts.IndexCacheSize = 16 << 20
	opts.SyncWrites = false
	opts.CompactL0OnClose = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open response cache: %w", err)
	}

	return &Store{db: db}, nil
}

// Key derives the cache key of a request. scope identifies the caller
// (credentials, session) so entries are never shared between them.
func Key(method, path, scope string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write(body)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Close closes the BadgerDB instance
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores a value; ttl <= 0 stores it without expiry
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get retrieves a value by key
func (s *Store) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	return value, err
}

// Delete removes a key
func (s *Store) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Purge drops every cached response
func (s *Store) Purge() error {
	return s.db.DropPrefix([]byte(keyPrefix))
}
