package cache

import (
	"errors"
	"testing"
	"time"
)

// Helper function to create a test cache on disk
func createTestStore(t *testing.T) *Store {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := createTestStore(t)

	key := Key("POST", "/app/db/get", "", []byte(`{"model":"users"}`))
	if err := s.Set(key, []byte(`[{"name":"Ada"}]`), time.Minute); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if string(got) != `[{"name":"Ada"}]` {
		t.Errorf("Value mismatch: got %s", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(Key("POST", "/nothing", "", nil))
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestInvalidKey(t *testing.T) {
	s := createTestStore(t)

	if err := s.Set("", []byte("x"), 0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey on Set, got %v", err)
	}
	if _, err := s.Get(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey on Get, got %v", err)
	}
	if err := s.Delete(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey on Delete, got %v", err)
	}
}

func TestKeyDependsOnEveryPart(t *testing.T) {
	base := Key("POST", "/app/db/get", "", []byte(`{}`))

	if base == Key("GET", "/app/db/get", "", []byte(`{}`)) {
		t.Error("Method must change the key")
	}
	if base == Key("POST", "/app/db/getSingle", "", []byte(`{}`)) {
		t.Error("Path must change the key")
	}
	if base == Key("POST", "/app/db/get", "", []byte(`{"limit":1}`)) {
		t.Error("Body must change the key")
	}
	if base == Key("POST", "/app/db/get", "key\x00alice", []byte(`{}`)) {
		t.Error("Scope must change the key")
	}
	if Key("POST", "/app/db/get", "key\x00alice", nil) == Key("POST", "/app/db/get", "key\x00bob", nil) {
		t.Error("Sessions must not share keys")
	}
	if base != Key("POST", "/app/db/get", "", []byte(`{}`)) {
		t.Error("Key must be deterministic")
	}
}

func TestDeleteAndPurge(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory cache: %v", err)
	}
	defer s.Close()

	k1 := Key("POST", "/a", "", nil)
	k2 := Key("POST", "/b", "", nil)
	s.Set(k1, []byte("1"), 0)
	s.Set(k2, []byte("2"), 0)

	if err := s.Delete(k1); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := s.Get(k1); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected deleted key to be gone, got %v", err)
	}

	if err := s.Purge(); err != nil {
		t.Fatalf("Failed to purge: %v", err)
	}
	if _, err := s.Get(k2); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected purged key to be gone, got %v", err)
	}
}
