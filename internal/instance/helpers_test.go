package instance

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/store"
	"github.com/roach88/ecreader/internal/testutil"
)

type fixture struct {
	reader *Reader
	store  *store.Store
	cat    *catalog.Catalog
}

// newFixture opens a temp store with the fixture model applied and a
// Reader over it using the stub geometry codec.
func newFixture(t *testing.T, opts ...ReaderOption) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "instance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cat := testutil.Catalog(t)
	require.NoError(t, s.ApplyModel(context.Background(), cat))

	base := []ReaderOption{
		WithGeometryCodec(testutil.StubGeometry{}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return &fixture{
		reader: NewReader(cat, s, append(base, opts...)...),
		store:  s,
		cat:    cat,
	}
}

func (f *fixture) insert(t *testing.T, classID model.ClassID, id model.InstanceID, values map[string]any) {
	t.Helper()
	require.NoError(t, f.store.InsertInstance(context.Background(), f.cat, classID, id, values))
}
