package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/rowsql"
)

const binaryPrefix = "encoding=base64;"

// Model is the catalog surface the store needs to lay out and write rows.
type Model interface {
	Shapes
	Resolve(id model.ClassID) (*model.ClassLayout, error)
	Classes() []*model.ClassLayout
}

// InsertInstance writes one instance of classID. values are keyed by
// property name (case-insensitive) and may hold either raw values
// (model.Point2dValue, model.StructValue, time.Time, ...) or plain decoded
// YAML/JSON data (maps, slices, numbers, strings).
//
// The primary row carries the discriminator; joined table rows share the Id.
func (s *Store) InsertInstance(ctx context.Context, m Model, classID model.ClassID, instanceID model.InstanceID, values map[string]any) error {
	l, err := m.Resolve(classID)
	if err != nil {
		return err
	}
	if !l.IsEntity() || l.Table == "" {
		return fmt.Errorf("class %s has no table", l.QualifiedName())
	}
	props, err := m.EffectiveProperties(classID)
	if err != nil {
		return err
	}

	rows := map[string]*insertRow{}
	var order []string
	row := func(table string) *insertRow {
		r, ok := rows[table]
		if !ok {
			r = &insertRow{table: table}
			r.add(model.IDColumn, int64(instanceID))
			rows[table] = r
			order = append(order, table)
		}
		return r
	}
	primary := row(l.Table)
	if l.ClassIDColumn != "" {
		primary.add(l.ClassIDColumn, int64(classID))
	}

	used := 0
	for _, p := range props {
		raw, ok := lookupFold(values, p.Name), hasFold(values, p.Name)
		if !ok {
			continue
		}
		used++
		codec, err := CompileProperty(m, p, l.Table)
		if err != nil {
			return err
		}
		cols, err := codec.Encode(raw)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.Name, err)
		}
		for i, slot := range codec.Slots() {
			row(slot.Table).add(slot.Column, cols[i])
		}
	}
	if used != len(values) {
		for name := range values {
			if _, ok := findProp(props, name); !ok {
				return model.NewPropertyNotFoundError(classID, name)
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	for _, table := range order {
		if err := rows[table].exec(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

type insertRow struct {
	table   string
	columns []string
	values  []any
}

func (r *insertRow) add(col string, v any) {
	r.columns = append(r.columns, col)
	r.values = append(r.values, v)
}

func (r *insertRow) exec(ctx context.Context, tx *sql.Tx) error {
	quoted := make([]string, len(r.columns))
	for i, c := range r.columns {
		quoted[i] = rowsql.Quote(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(r.columns)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		rowsql.Quote(r.table), strings.Join(quoted, ", "), placeholders)
	if _, err := tx.ExecContext(ctx, stmt, r.values...); err != nil {
		return fmt.Errorf("insert into %s: %w", r.table, err)
	}
	return nil
}

func hasFold(obj map[string]any, key string) bool {
	if _, ok := obj[key]; ok {
		return true
	}
	for k := range obj {
		if model.SameName(k, key) {
			return true
		}
	}
	return false
}

func findProp(props []model.PropertyDescriptor, name string) (*model.PropertyDescriptor, bool) {
	for i := range props {
		if model.SameName(props[i].Name, name) {
			return &props[i], true
		}
	}
	return nil, false
}

// Encode flattens raw into column values, one per slot. The inverse of Decode.
func (c *PropertyCodec) Encode(raw any) ([]any, error) {
	out := make([]any, len(c.slots))
	if raw == nil {
		return out, nil
	}

	switch c.prop.Kind {
	case model.KindPrimitive:
		switch c.prop.Primitive {
		case model.Point2d, model.Point3d:
			coords, err := pointCoords(c.prop, raw)
			if err != nil {
				return nil, err
			}
			for i := range out {
				out[i] = coords[i]
			}
		default:
			v, err := encodeScalar(c.prop, raw)
			if err != nil {
				return nil, err
			}
			out[0] = v
		}
	case model.KindNavigation:
		id, rel, err := navParts(c.prop, raw)
		if err != nil {
			return nil, err
		}
		out[0] = id
		if rel != 0 {
			out[1] = rel
		}
	case model.KindArray:
		items, ok := raw.([]any)
		if !ok {
			return nil, model.NewMalformedPropertyError(c.prop.Name, "expected a list, got %T", raw)
		}
		data, err := encodeJSON(c.shapes, c.prop, items)
		if err != nil {
			return nil, err
		}
		out[0] = oj.JSON(data)
	case model.KindStruct:
		sv, err := structValues(c.prop, raw)
		if err != nil {
			return nil, err
		}
		off := 0
		for _, m := range c.members {
			vals, err := m.Encode(sv[model.FoldName(m.prop.Name)])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.prop.Name, err)
			}
			copy(out[off:], vals)
			off += len(vals)
		}
	}
	return out, nil
}

func encodeScalar(p model.PropertyDescriptor, raw any) (any, error) {
	switch p.Primitive {
	case model.Boolean:
		switch b := raw.(type) {
		case bool:
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		default:
			if n, ok := asInt(raw); ok {
				return n, nil
			}
		}
	case model.Integer32, model.Integer64:
		if n, ok := asInt(raw); ok {
			return n, nil
		}
	case model.Double:
		if f, ok := asFloat(raw); ok {
			return f, nil
		}
	case model.String:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case model.Binary, model.Geometry:
		switch b := raw.(type) {
		case []byte:
			return b, nil
		case string:
			if rest, ok := strings.CutPrefix(b, binaryPrefix); ok {
				return decodeBase64(p.Name, rest)
			}
			return []byte(b), nil
		}
	case model.DateTime:
		t, err := toTime(p.Name, raw)
		if err != nil {
			return nil, err
		}
		return t.UnixMilli(), nil
	}
	return nil, model.NewMalformedPropertyError(p.Name, "cannot store %T as %s", raw, p.Primitive)
}

// encodeJSON converts a raw value into plain data for an array column.
func encodeJSON(shapes Shapes, p model.PropertyDescriptor, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch p.Kind {
	case model.KindArray:
		items, ok := raw.([]any)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "expected a list, got %T", raw)
		}
		el := p.ElementDescriptor()
		out := make([]any, len(items))
		for i, item := range items {
			v, err := encodeJSON(shapes, el, item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", p.Name, i, err)
			}
			out[i] = v
		}
		return out, nil
	case model.KindPrimitive:
		switch p.Primitive {
		case model.Point2d, model.Point3d:
			coords, err := pointCoords(p, raw)
			if err != nil {
				return nil, err
			}
			obj := map[string]any{"X": coords[0], "Y": coords[1]}
			if len(coords) == 3 {
				obj["Z"] = coords[2]
			}
			return obj, nil
		case model.Binary, model.Geometry:
			v, err := encodeScalar(p, raw)
			if err != nil {
				return nil, err
			}
			return base64.StdEncoding.EncodeToString(v.([]byte)), nil
		case model.Boolean:
			v, err := encodeScalar(p, raw)
			if err != nil {
				return nil, err
			}
			return v.(int64) != 0, nil
		default:
			return encodeScalar(p, raw)
		}
	case model.KindStruct:
		sv, err := structValues(p, raw)
		if err != nil {
			return nil, err
		}
		members, err := shapes.EffectiveProperties(p.StructClass)
		if err != nil {
			return nil, err
		}
		obj := make(map[string]any, len(members))
		for _, m := range members {
			mv := sv[model.FoldName(m.Name)]
			if mv == nil {
				continue
			}
			v, err := encodeJSON(shapes, m, mv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
			obj[m.Name] = v
		}
		return obj, nil
	case model.KindNavigation:
		id, rel, err := navParts(p, raw)
		if err != nil {
			return nil, err
		}
		obj := map[string]any{"Id": id}
		if rel != 0 {
			obj["RelECClassId"] = rel
		}
		return obj, nil
	}
	return nil, model.NewMalformedPropertyError(p.Name, "unknown property kind %d", int(p.Kind))
}

func pointCoords(p model.PropertyDescriptor, raw any) ([]float64, error) {
	switch v := raw.(type) {
	case model.Point2dValue:
		if p.Primitive == model.Point2d {
			return []float64{v.X, v.Y}, nil
		}
	case model.Point3dValue:
		if p.Primitive == model.Point3d {
			return []float64{v.X, v.Y, v.Z}, nil
		}
	case map[string]any:
		keys := []string{"X", "Y", "Z"}[:2+boolInt(p.Primitive == model.Point3d)]
		coords := make([]float64, len(keys))
		for i, k := range keys {
			f, ok := asFloat(lookupFold(v, k))
			if !ok {
				return nil, model.NewMalformedPropertyError(p.Name, "point is missing coordinate %s", k)
			}
			coords[i] = f
		}
		return coords, nil
	}
	return nil, model.NewMalformedPropertyError(p.Name, "cannot store %T as %s", raw, p.Primitive)
}

func navParts(p model.PropertyDescriptor, raw any) (int64, int64, error) {
	switch v := raw.(type) {
	case model.NavValue:
		return int64(v.ID), int64(v.RelClass), nil
	case map[string]any:
		id, ok := asInt(lookupFold(v, "Id"))
		if !ok {
			return 0, 0, model.NewMalformedPropertyError(p.Name, "navigation value has no Id")
		}
		var rel int64
		if r := lookupFold(v, "RelECClassId"); r != nil {
			if rel, ok = asInt(r); !ok {
				return 0, 0, model.NewMalformedPropertyError(p.Name, "navigation RelECClassId is %T", r)
			}
		}
		return id, rel, nil
	default:
		if id, ok := asInt(raw); ok {
			return id, 0, nil
		}
	}
	return 0, 0, model.NewMalformedPropertyError(p.Name, "cannot store %T as navigation", raw)
}

func structValues(p model.PropertyDescriptor, raw any) (model.StructValue, error) {
	switch v := raw.(type) {
	case model.StructValue:
		return v, nil
	case map[string]any:
		sv := make(model.StructValue, len(v))
		for k, mv := range v {
			sv[model.FoldName(k)] = mv
		}
		return sv, nil
	}
	return nil, model.NewMalformedPropertyError(p.Name, "cannot store %T as struct", raw)
}

func toTime(name string, raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseDateTime(name, v)
	default:
		if ms, ok := asInt(raw); ok {
			return time.UnixMilli(ms).UTC(), nil
		}
	}
	return time.Time{}, model.NewMalformedPropertyError(name, "cannot store %T as dateTime", raw)
}

func decodeBase64(name, s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, binaryPrefix))
	if err != nil {
		return nil, model.NewMalformedPropertyError(name, "invalid base64: %v", err)
	}
	return b, nil
}
