package encoder

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/model"
)

// Shapes is the part of the class catalog the encoder needs: qualified names
// for class-valued fields and member lists for structs.
type Shapes interface {
	QualifiedName(id model.ClassID) (string, error)
	EffectiveProperties(id model.ClassID) ([]model.PropertyDescriptor, error)
}

// GeometryCodec renders a stored geometry blob as a JSON fragment.
type GeometryCodec interface {
	ToJSON(blob []byte) ([]byte, error)
}

// NullArrayPolicy decides how a NULL array column renders.
type NullArrayPolicy int

const (
	// EmitEmptyArray renders a NULL array as [].
	EmitEmptyArray NullArrayPolicy = iota
	// OmitNullArray treats a NULL array as unset.
	OmitNullArray
)

// NullStructPolicy decides how a struct whose members are all unset renders.
type NullStructPolicy int

const (
	// EmitEmptyStruct renders an all-unset struct as {}.
	EmitEmptyStruct NullStructPolicy = iota
	// OmitNullStruct treats an all-unset struct as unset.
	OmitNullStruct
)

// Policy groups the null-handling choices.
type Policy struct {
	NullArrays  NullArrayPolicy
	NullStructs NullStructPolicy
}

// Encoder encodes raw values for one catalog.
type Encoder struct {
	shapes   Shapes
	geometry GeometryCodec
	policy   Policy
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithGeometryCodec sets the codec used for Geometry properties.
func WithGeometryCodec(c GeometryCodec) Option {
	return func(e *Encoder) {
		if c != nil {
			e.geometry = c
		}
	}
}

// WithPolicy sets the null-handling policy.
func WithPolicy(p Policy) Option {
	return func(e *Encoder) {
		e.policy = p
	}
}

// New creates an Encoder. Without WithGeometryCodec, geometry blobs are
// expected to hold JSON text already (see JSONGeometry).
func New(shapes Shapes, opts ...Option) *Encoder {
	e := &Encoder{shapes: shapes, geometry: JSONGeometry{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the null-handling policy in effect.
func (e *Encoder) Policy() Policy {
	return e.policy
}

const (
	dateTimeLayout = "2006-01-02T15:04:05.000"
	binaryPrefix   = "encoding=base64;"
)

// InstanceID renders the ECInstanceId field.
func (e *Encoder) InstanceID(id model.InstanceID) doc.Value {
	return doc.String(id.Hex())
}

// ClassID renders the ECClassId field (the qualified class name).
func (e *Encoder) ClassID(id model.ClassID) (doc.Value, error) {
	name, err := e.shapes.QualifiedName(id)
	if err != nil {
		return nil, err
	}
	return doc.String(name), nil
}

// Encode converts raw into a document value for p.
//
// A nil result means the property is unset and is omitted from documents:
// NULL primitives, unset navigation, and NULL arrays or all-unset structs
// when the policy says so. An unknown kind is a MalformedProperty error.
func (e *Encoder) Encode(p *model.PropertyDescriptor, raw any) (doc.Value, error) {
	switch p.Kind {
	case model.KindPrimitive:
		if raw == nil {
			return nil, nil
		}
		return e.encodePrimitive(p, raw)
	case model.KindNavigation:
		return e.encodeNavigation(p, raw)
	case model.KindStruct:
		return e.encodeStruct(p, raw, false)
	case model.KindArray:
		return e.encodeArray(p, raw)
	default:
		return nil, model.NewMalformedPropertyError(p.Name, "unknown property kind %d", int(p.Kind))
	}
}

func (e *Encoder) encodePrimitive(p *model.PropertyDescriptor, raw any) (doc.Value, error) {
	switch p.Primitive {
	case model.Boolean:
		switch v := raw.(type) {
		case bool:
			return doc.Bool(v), nil
		case int64:
			return doc.Bool(v != 0), nil
		}
	case model.Integer32:
		if v, ok := toInt64(raw); ok {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, model.NewMalformedPropertyError(p.Name, "value %d overflows int32", v)
			}
			return doc.Int(int32(v)), nil
		}
	case model.Integer64:
		if v, ok := toInt64(raw); ok {
			return doc.Long(v), nil
		}
	case model.Double:
		if v, ok := toFloat64(raw); ok {
			return doc.Double(v), nil
		}
	case model.String:
		switch v := raw.(type) {
		case string:
			return doc.String(v), nil
		case []byte:
			return doc.String(v), nil
		}
	case model.Binary:
		switch v := raw.(type) {
		case []byte:
			return doc.String(binaryPrefix + base64.StdEncoding.EncodeToString(v)), nil
		case string:
			return doc.String(binaryPrefix + base64.StdEncoding.EncodeToString([]byte(v))), nil
		}
	case model.DateTime:
		if v, ok := raw.(time.Time); ok {
			return doc.String(FormatDateTime(v, p.DateTimeKind)), nil
		}
	case model.Point2d:
		if v, ok := raw.(model.Point2dValue); ok {
			return doc.Object{doc.M("X", doc.Double(v.X)), doc.M("Y", doc.Double(v.Y))}, nil
		}
	case model.Point3d:
		if v, ok := raw.(model.Point3dValue); ok {
			return doc.Object{
				doc.M("X", doc.Double(v.X)),
				doc.M("Y", doc.Double(v.Y)),
				doc.M("Z", doc.Double(v.Z)),
			}, nil
		}
	case model.Geometry:
		switch v := raw.(type) {
		case []byte:
			return e.encodeGeometry(p, v)
		case string:
			return e.encodeGeometry(p, []byte(v))
		}
	default:
		return nil, model.NewMalformedPropertyError(p.Name, "unknown primitive type %d", int(p.Primitive))
	}
	return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit %s", raw, p.Primitive)
}

func (e *Encoder) encodeGeometry(p *model.PropertyDescriptor, blob []byte) (doc.Value, error) {
	fragment, err := e.geometry.ToJSON(blob)
	if err != nil {
		return nil, fmt.Errorf("geometry %s: %w", p.Name, err)
	}
	if _, err := oj.Parse(fragment); err != nil {
		return nil, model.NewMalformedPropertyError(p.Name, "geometry codec produced invalid JSON: %v", err)
	}
	return doc.Raw(fragment), nil
}

func (e *Encoder) encodeNavigation(p *model.PropertyDescriptor, raw any) (doc.Value, error) {
	if raw == nil {
		return nil, nil
	}
	nav, ok := raw.(model.NavValue)
	if !ok {
		return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit navigation", raw)
	}
	if nav.ID == 0 {
		return nil, nil
	}
	obj := doc.Object{doc.M("Id", doc.String(nav.ID.Hex()))}
	rel := nav.RelClass
	if rel == 0 {
		rel = p.RelClass
	}
	if rel != 0 {
		name, err := e.shapes.QualifiedName(rel)
		if err != nil {
			return nil, fmt.Errorf("navigation %s: %w", p.Name, err)
		}
		obj = append(obj, doc.M("RelECClassId", doc.String(name)))
	}
	return obj, nil
}

// encodeStruct renders members in declared order. Inside arrays an element
// can never be omitted, so an all-unset element renders as {}.
func (e *Encoder) encodeStruct(p *model.PropertyDescriptor, raw any, element bool) (doc.Value, error) {
	var sv model.StructValue
	if raw != nil {
		v, ok := raw.(model.StructValue)
		if !ok {
			return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit struct", raw)
		}
		sv = v
	}
	if element && raw == nil {
		return doc.Null{}, nil
	}

	members, err := e.shapes.EffectiveProperties(p.StructClass)
	if err != nil {
		return nil, fmt.Errorf("struct %s: %w", p.Name, err)
	}

	if structUnset(sv) {
		if !element && e.policy.NullStructs == OmitNullStruct {
			return nil, nil
		}
		return doc.Object{}, nil
	}

	obj := make(doc.Object, 0, len(members))
	for i := range members {
		m := &members[i]
		v, err := e.Encode(m, sv[model.FoldName(m.Name)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		if v != nil {
			obj = append(obj, doc.M(m.Name, v))
		}
	}
	return obj, nil
}

// structUnset reports whether every member of sv is unset. A nested struct
// counts as unset when its own members are.
func structUnset(sv model.StructValue) bool {
	for _, v := range sv {
		if nested, ok := v.(model.StructValue); ok {
			if !structUnset(nested) {
				return false
			}
			continue
		}
		if v != nil {
			return false
		}
	}
	return true
}

func (e *Encoder) encodeArray(p *model.PropertyDescriptor, raw any) (doc.Value, error) {
	if raw == nil {
		if e.policy.NullArrays == OmitNullArray {
			return nil, nil
		}
		return doc.Array{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit array", raw)
	}

	el := p.ElementDescriptor()
	arr := make(doc.Array, 0, len(items))
	for i, item := range items {
		var (
			v   doc.Value
			err error
		)
		switch el.Kind {
		case model.KindPrimitive:
			if item == nil {
				v = doc.Null{}
			} else {
				v, err = e.encodePrimitive(&el, item)
			}
		case model.KindStruct:
			v, err = e.encodeStruct(&el, item, true)
		default:
			return nil, model.NewMalformedPropertyError(p.Name, "unsupported array element kind %s", el.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", p.Name, i, err)
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// FormatDateTime renders t with millisecond precision; UTC timestamps get a
// trailing Z.
func FormatDateTime(t time.Time, kind model.DateTimeKind) string {
	if kind == model.DateTimeUtc {
		return t.UTC().Format(dateTimeLayout) + "Z"
	}
	return t.Format(dateTimeLayout)
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	}
	return 0, false
}

func toFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
