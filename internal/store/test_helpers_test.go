package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/testutil"
)

// createTestStore creates a store in a temp dir with the fixture model applied.
func createTestStore(t *testing.T) (*Store, *catalog.Catalog) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cat := testutil.Catalog(t)
	if err := s.ApplyModel(context.Background(), cat); err != nil {
		t.Fatalf("ApplyModel() failed: %v", err)
	}
	return s, cat
}
