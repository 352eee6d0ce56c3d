package cli

import (
	"log/slog"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/compiler"
	"github.com/roach88/ecreader/internal/instance"
	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/store"
)

// session is the catalog, store and reader one command works against.
type session struct {
	cat    *catalog.Catalog
	store  *store.Store
	reader *instance.Reader
}

// openSession compiles --model and, when withDB is set, opens --db.
// Without a database the reader can still answer catalog-only questions
// (PropExists) but must not read rows.
func openSession(opts *RootOptions, withDB bool) (*session, error) {
	if opts.Model == "" {
		return nil, NewExitError(ExitCommandError, "--model is required")
	}
	if withDB && opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}

	slog.Debug("loading model", "path", opts.Model)
	cat, err := compiler.LoadCatalog(opts.Model)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load model", err)
	}
	slog.Debug("model loaded", "classes", len(cat.Classes()))

	s := &session{cat: cat}
	var rows instance.RowSource
	if withDB {
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		s.store = st
		rows = st
	}
	s.reader = instance.NewReader(cat, rows,
		instance.WithOptions(opts.readerOptions()),
		instance.WithLogger(slog.Default()))
	return s, nil
}

// Close closes the store, if one was opened.
func (s *session) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// resolveClass accepts "Schema.Class", "alias.Class" or a numeric class id.
func (s *session) resolveClass(ref string) (model.ClassID, error) {
	if id, err := model.ParseID(ref); err == nil {
		return model.ClassID(id), nil
	}
	return s.cat.LookupClass(ref)
}

func parseInstanceID(ref string) (model.InstanceID, error) {
	id, err := model.ParseID(ref)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid instance id", err)
	}
	return model.InstanceID(id), nil
}
