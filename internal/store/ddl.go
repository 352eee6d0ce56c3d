package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/rowsql"
)

// ClassMapping is one row of the class-to-table registry.
type ClassMapping struct {
	ClassID       uint64
	QualifiedName string
	Table         string
	ClassIDColumn string
}

type tableDef struct {
	name    string
	parent  string // primary table a joined table hangs off, if any
	columns []Slot
	seen    map[string]bool
}

func (t *tableDef) add(s Slot) {
	key := strings.ToLower(s.Column)
	if t.seen[key] {
		return
	}
	t.seen[key] = true
	t.columns = append(t.columns, s)
}

// ApplyModel creates (or widens) the tables every entity class of m maps to
// and records the mapping in the registry. Existing tables gain missing
// columns; nothing is dropped. This function is idempotent.
func (s *Store) ApplyModel(ctx context.Context, m Model) error {
	tables := map[string]*tableDef{}
	table := func(name string) *tableDef {
		t, ok := tables[name]
		if !ok {
			t = &tableDef{name: name, seen: map[string]bool{strings.ToLower(model.IDColumn): true}}
			tables[name] = t
		}
		return t
	}

	var mappings []ClassMapping
	for _, l := range m.Classes() {
		if !l.IsEntity() || l.Table == "" {
			continue
		}
		primary := table(l.Table)
		if l.ClassIDColumn != "" {
			primary.add(Slot{Table: l.Table, Column: l.ClassIDColumn, SQLType: "INTEGER"})
		}
		for _, p := range l.Properties {
			codec, err := CompileProperty(m, p, l.Table)
			if err != nil {
				return fmt.Errorf("class %s: %w", l.QualifiedName(), err)
			}
			for _, slot := range codec.Slots() {
				t := table(slot.Table)
				if slot.Table != l.Table && t.parent == "" {
					t.parent = l.Table
				}
				t.add(slot)
			}
		}
		mappings = append(mappings, ClassMapping{
			ClassID:       uint64(l.ID),
			QualifiedName: l.QualifiedName(),
			Table:         l.Table,
			ClassIDColumn: l.ClassIDColumn,
		})
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	slices.Sort(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply model: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		if err := ensureTable(ctx, tx, tables[name]); err != nil {
			return err
		}
	}
	for _, cm := range mappings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ec_class_map (class_id, qualified_name, table_name, class_id_column)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(class_id) DO UPDATE SET
				qualified_name = excluded.qualified_name,
				table_name = excluded.table_name,
				class_id_column = excluded.class_id_column
		`, int64(cm.ClassID), cm.QualifiedName, cm.Table, cm.ClassIDColumn)
		if err != nil {
			return fmt.Errorf("record class %s: %w", cm.QualifiedName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply model: %w", err)
	}
	return nil
}

func ensureTable(ctx context.Context, tx *sql.Tx, t *tableDef) error {
	idDef := rowsql.Quote(model.IDColumn) + " INTEGER PRIMARY KEY"
	if t.parent != "" {
		idDef += fmt.Sprintf(" REFERENCES %s(%s) ON DELETE CASCADE", rowsql.Quote(t.parent), rowsql.Quote(model.IDColumn))
	}
	defs := []string{idDef}
	for _, c := range t.columns {
		defs = append(defs, rowsql.Quote(c.Column)+" "+c.SQLType)
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", rowsql.Quote(t.name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}

	existing, err := tableColumns(ctx, tx, t.name)
	if err != nil {
		return err
	}
	for _, c := range t.columns {
		if existing[strings.ToLower(c.Column)] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", rowsql.Quote(t.name), rowsql.Quote(c.Column), c.SQLType)
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("widen table %s: %w", t.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", table, err)
	}
	return cols, nil
}

// ClassMappings returns the registry ordered by class id.
// Returns an empty slice (not nil) when nothing has been applied.
func (s *Store) ClassMappings(ctx context.Context) ([]ClassMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT class_id, qualified_name, table_name, class_id_column
		FROM ec_class_map
		ORDER BY class_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query class map: %w", err)
	}
	defer rows.Close()

	var out []ClassMapping
	for rows.Next() {
		var (
			cm ClassMapping
			id int64
		)
		if err := rows.Scan(&id, &cm.QualifiedName, &cm.Table, &cm.ClassIDColumn); err != nil {
			return nil, fmt.Errorf("scan class map: %w", err)
		}
		cm.ClassID = uint64(id)
		out = append(out, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate class map: %w", err)
	}

	if out == nil {
		out = []ClassMapping{}
	}
	return out, nil
}
