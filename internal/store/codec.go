package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/roach88/ecreader/internal/model"
)

// Shapes resolves the member list of struct classes.
type Shapes interface {
	EffectiveProperties(id model.ClassID) ([]model.PropertyDescriptor, error)
}

// Slot is one physical column a property occupies.
type Slot struct {
	Table   string
	Column  string
	SQLType string
}

// PropertyCodec converts between a property's physical columns and its raw
// value. It is compiled once per property and immutable afterwards.
type PropertyCodec struct {
	prop    model.PropertyDescriptor
	slots   []Slot
	members []*PropertyCodec
	shapes  Shapes
}

// CompileProperty resolves the physical slots of p. Columns whose mapping
// names no table live on table.
func CompileProperty(shapes Shapes, p model.PropertyDescriptor, table string) (*PropertyCodec, error) {
	if p.Column.Table != "" {
		table = p.Column.Table
	}
	c := &PropertyCodec{prop: p, shapes: shapes}

	switch p.Kind {
	case model.KindPrimitive:
		want := 1
		switch p.Primitive {
		case model.Point2d:
			want = 2
		case model.Point3d:
			want = 3
		case model.PrimitiveUnknown:
			return nil, model.NewMalformedPropertyError(p.Name, "unknown primitive type")
		}
		if err := c.addSlots(table, want, sqlType(p.Primitive)); err != nil {
			return nil, err
		}
	case model.KindNavigation:
		if err := c.addSlots(table, 2, "INTEGER"); err != nil {
			return nil, err
		}
	case model.KindArray:
		if p.Element != model.KindPrimitive && p.Element != model.KindStruct {
			return nil, model.NewMalformedPropertyError(p.Name, "unsupported array element kind %s", p.Element)
		}
		if err := c.addSlots(table, 1, "TEXT"); err != nil {
			return nil, err
		}
	case model.KindStruct:
		members, err := shapes.EffectiveProperties(p.StructClass)
		if err != nil {
			return nil, fmt.Errorf("struct %s: %w", p.Name, err)
		}
		for _, m := range members {
			mapping, ok := p.Column.Members[model.FoldName(m.Name)]
			if !ok {
				return nil, model.NewMalformedPropertyError(p.Name, "struct member %s has no column mapping", m.Name)
			}
			m.Column = mapping
			mc, err := CompileProperty(shapes, m, table)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
			c.members = append(c.members, mc)
			c.slots = append(c.slots, mc.slots...)
		}
	default:
		return nil, model.NewMalformedPropertyError(p.Name, "unknown property kind %d", int(p.Kind))
	}
	return c, nil
}

func (c *PropertyCodec) addSlots(table string, want int, typ string) error {
	if len(c.prop.Column.Columns) != want {
		return model.NewMalformedPropertyError(c.prop.Name,
			"%s %s expects %d columns, mapping has %d",
			c.prop.Kind, c.prop.Primitive, want, len(c.prop.Column.Columns))
	}
	for _, col := range c.prop.Column.Columns {
		c.slots = append(c.slots, Slot{Table: table, Column: col, SQLType: typ})
	}
	return nil
}

func sqlType(p model.PrimitiveType) string {
	switch p {
	case model.Boolean, model.Integer32, model.Integer64, model.DateTime:
		return "INTEGER"
	case model.Double, model.Point2d, model.Point3d:
		return "REAL"
	case model.Binary, model.Geometry:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// Property returns the descriptor the codec was compiled for.
func (c *PropertyCodec) Property() *model.PropertyDescriptor {
	return &c.prop
}

// Slots returns the physical columns in read order.
func (c *PropertyCodec) Slots() []Slot {
	return c.slots
}

// Decode rebuilds the raw value from scanned column values, one per slot.
// A nil result means unset.
func (c *PropertyCodec) Decode(vals []any) (any, error) {
	if len(vals) != len(c.slots) {
		return nil, fmt.Errorf("%s: got %d column values for %d slots", c.prop.Name, len(vals), len(c.slots))
	}

	switch c.prop.Kind {
	case model.KindPrimitive:
		switch c.prop.Primitive {
		case model.Point2d, model.Point3d:
			return decodePoint(c.prop, vals)
		default:
			return decodeScalar(c.prop, vals[0])
		}
	case model.KindNavigation:
		return decodeNavigation(c.prop, vals[0], vals[1])
	case model.KindArray:
		return c.decodeArray(vals[0])
	case model.KindStruct:
		sv := make(model.StructValue, len(c.members))
		off := 0
		for _, m := range c.members {
			n := len(m.slots)
			v, err := m.Decode(vals[off : off+n])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.prop.Name, err)
			}
			sv[model.FoldName(m.prop.Name)] = v
			off += n
		}
		return sv, nil
	}
	return nil, model.NewMalformedPropertyError(c.prop.Name, "unknown property kind %d", int(c.prop.Kind))
}

func decodeScalar(p model.PropertyDescriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch p.Primitive {
	case model.Boolean:
		switch b := v.(type) {
		case int64:
			return b != 0, nil
		case bool:
			return b, nil
		}
	case model.DateTime:
		return decodeDateTime(p, v)
	}
	return v, nil
}

func decodeDateTime(p model.PropertyDescriptor, v any) (any, error) {
	switch t := v.(type) {
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseDateTime(p.Name, t)
	}
	return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit dateTime", v)
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateTime(name, s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, model.NewMalformedPropertyError(name, "unparseable dateTime %q", s)
}

func decodePoint(p model.PropertyDescriptor, vals []any) (any, error) {
	coords := make([]float64, len(vals))
	for i, v := range vals {
		if v == nil {
			return nil, nil
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit a coordinate", v)
		}
		coords[i] = f
	}
	if len(coords) == 2 {
		return model.Point2dValue{X: coords[0], Y: coords[1]}, nil
	}
	return model.Point3dValue{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func decodeNavigation(p model.PropertyDescriptor, id, rel any) (any, error) {
	if id == nil {
		return nil, nil
	}
	target, ok := asInt(id)
	if !ok {
		return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit a navigation id", id)
	}
	nav := model.NavValue{ID: model.InstanceID(target)}
	if rel != nil {
		r, ok := asInt(rel)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit a relationship class id", rel)
		}
		nav.RelClass = model.ClassID(r)
	}
	return nav, nil
}

func (c *PropertyCodec) decodeArray(v any) (any, error) {
	var text string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		text = t
	case []byte:
		text = string(t)
	default:
		return nil, model.NewMalformedPropertyError(c.prop.Name, "stored %T does not fit an array column", v)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parsed, err := oj.ParseString(text)
	if err != nil {
		return nil, model.NewMalformedPropertyError(c.prop.Name, "array column is not JSON: %v", err)
	}
	items, ok := parsed.([]any)
	if !ok {
		return nil, model.NewMalformedPropertyError(c.prop.Name, "array column holds %T, not a JSON array", parsed)
	}

	el := c.prop.ElementDescriptor()
	out := make([]any, len(items))
	for i, item := range items {
		out[i], err = decodeJSON(c.shapes, el, item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", c.prop.Name, i, err)
		}
	}
	return out, nil
}

// decodeJSON converts one parsed JSON value from an array column into the
// raw value of p.
func decodeJSON(shapes Shapes, p model.PropertyDescriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch p.Kind {
	case model.KindPrimitive:
		switch p.Primitive {
		case model.Binary, model.Geometry:
			s, ok := v.(string)
			if !ok {
				return nil, model.NewMalformedPropertyError(p.Name, "expected base64 string, got %T", v)
			}
			return decodeBase64(p.Name, s)
		case model.DateTime:
			return decodeDateTime(p, v)
		case model.Point2d, model.Point3d:
			obj, ok := v.(map[string]any)
			if !ok {
				return nil, model.NewMalformedPropertyError(p.Name, "expected point object, got %T", v)
			}
			keys := []string{"X", "Y", "Z"}[:2+boolInt(p.Primitive == model.Point3d)]
			vals := make([]any, len(keys))
			for i, k := range keys {
				vals[i] = lookupFold(obj, k)
			}
			return decodePoint(p, vals)
		case model.Boolean:
			return decodeScalar(p, v)
		}
		return v, nil
	case model.KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "expected struct object, got %T", v)
		}
		members, err := shapes.EffectiveProperties(p.StructClass)
		if err != nil {
			return nil, err
		}
		sv := make(model.StructValue, len(members))
		for _, m := range members {
			mv, err := decodeJSON(shapes, m, lookupFold(obj, m.Name))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
			sv[model.FoldName(m.Name)] = mv
		}
		return sv, nil
	case model.KindArray:
		items, ok := v.([]any)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "expected JSON array, got %T", v)
		}
		el := p.ElementDescriptor()
		out := make([]any, len(items))
		for i, item := range items {
			ev, err := decodeJSON(shapes, el, item)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case model.KindNavigation:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "expected navigation object, got %T", v)
		}
		return decodeNavigation(p, lookupFold(obj, "Id"), lookupFold(obj, "RelECClassId"))
	}
	return nil, model.NewMalformedPropertyError(p.Name, "unknown property kind %d", int(p.Kind))
}

func lookupFold(obj map[string]any, key string) any {
	if v, ok := obj[key]; ok {
		return v
	}
	for k, v := range obj {
		if model.SameName(k, key) {
			return v
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case int64:
		return float64(f), true
	case int:
		return float64(f), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case string:
		id, err := model.ParseID(n)
		if err == nil {
			return int64(id), true
		}
	}
	return 0, false
}
