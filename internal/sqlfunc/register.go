package sqlfunc

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/ecreader/internal/model"
)

// Reader is the instance surface the SQL functions call.
// *instance.Reader implements it.
type Reader interface {
	PropExists(classID model.ClassID, name string) (bool, error)
	ExtractScalar(ctx context.Context, classID model.ClassID, instanceID model.InstanceID, name string) (any, error)
	MaterializeJSON(ctx context.Context, classID model.ClassID, instanceID model.InstanceID) (string, error)
}

// ClassLookup resolves "schema.Class" or "alias.Class" names.
// *catalog.Catalog implements it.
type ClassLookup interface {
	LookupClass(name string) (model.ClassID, error)
}

var registerMu sync.Mutex

// Register installs a sqlite3 driver named driverName whose connections
// carry the instance functions. Open databases with
// sql.Open(driverName, store.DSN(path)).
//
// database/sql drivers cannot be unregistered, so registering the same
// name twice is an error.
func Register(driverName string, r Reader, classes ClassLookup) error {
	registerMu.Lock()
	defer registerMu.Unlock()

	if slices.Contains(sql.Drivers(), driverName) {
		return fmt.Errorf("sql driver %q already registered", driverName)
	}
	fns := &functions{reader: r, classes: classes}
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: fns.install,
	})
	return nil
}

type functions struct {
	reader  Reader
	classes ClassLookup
}

func (f *functions) install(conn *sqlite3.SQLiteConn) error {
	// None of the functions is pure: results depend on table contents.
	if err := conn.RegisterFunc("extract_inst", f.extractInst, false); err != nil {
		return fmt.Errorf("register extract_inst: %w", err)
	}
	if err := conn.RegisterFunc("extract_prop", f.extractProp, false); err != nil {
		return fmt.Errorf("register extract_prop: %w", err)
	}
	if err := conn.RegisterFunc("prop_exists", f.propExists, false); err != nil {
		return fmt.Errorf("register prop_exists: %w", err)
	}
	if err := conn.RegisterFunc("ec_classid", f.classID, true); err != nil {
		return fmt.Errorf("register ec_classid: %w", err)
	}
	return nil
}

// extractInst returns the instance document, or NULL when the instance
// does not exist.
func (f *functions) extractInst(classID, instanceID int64) (any, error) {
	js, err := f.reader.MaterializeJSON(context.Background(), model.ClassID(classID), model.InstanceID(instanceID))
	if model.IsInstanceNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return js, nil
}

// extractProp returns one property through the scalar channel. Booleans
// become 0/1 since SQLite has no boolean type. A missing instance or
// property yields NULL.
func (f *functions) extractProp(classID, instanceID int64, name string) (any, error) {
	v, err := f.reader.ExtractScalar(context.Background(), model.ClassID(classID), model.InstanceID(instanceID), name)
	if model.IsInstanceNotFound(err) || model.IsPropertyNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if b, ok := v.(bool); ok {
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return v, nil
}

func (f *functions) propExists(classID int64, name string) (int64, error) {
	ok, err := f.reader.PropExists(model.ClassID(classID), name)
	if model.IsUnknownClass(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}

func (f *functions) classID(name string) (any, error) {
	id, err := f.classes.LookupClass(name)
	if model.IsUnknownClass(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return int64(id), nil
}
