package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record and loads it.
func createTestRecord(t *testing.T, s *Store, model string) *Record {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateRecord(ctx, model)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	rec, err := s.Record(ctx, id)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	return rec
}
