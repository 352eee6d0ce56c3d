package encoder

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/model"
)

const (
	structPClass  model.ClassID = 10
	relClass      model.ClassID = 11
	otherRelClass model.ClassID = 12
)

// fakeShapes serves one struct class and two relationship names.
type fakeShapes struct{}

func (fakeShapes) QualifiedName(id model.ClassID) (string, error) {
	switch id {
	case structPClass:
		return "TestSchema.struct_p", nil
	case relClass:
		return "TestSchema.e_mix_has_base_mix", nil
	case otherRelClass:
		return "TestSchema.other_rel", nil
	}
	return "", model.NewUnknownClassError(id)
}

func (fakeShapes) EffectiveProperties(id model.ClassID) ([]model.PropertyDescriptor, error) {
	if id != structPClass {
		return nil, model.NewUnknownClassError(id)
	}
	return []model.PropertyDescriptor{
		prim("b", model.Boolean),
		prim("i", model.Integer32),
		prim("s", model.String),
		prim("p2d", model.Point2d),
	}, nil
}

func prim(name string, p model.PrimitiveType) model.PropertyDescriptor {
	return model.PropertyDescriptor{Name: name, Kind: model.KindPrimitive, Primitive: p}
}

func render(t *testing.T, v doc.Value) string {
	t.Helper()
	require.NotNil(t, v)
	s, err := doc.MarshalString(v)
	require.NoError(t, err)
	return s
}

func TestEncodePrimitives(t *testing.T) {
	enc := New(fakeShapes{})
	dt := time.Date(2017, 1, 17, 0, 0, 0, 0, time.UTC)

	utc := prim("dtUtc", model.DateTime)
	utc.DateTimeKind = model.DateTimeUtc

	tests := []struct {
		name     string
		prop     model.PropertyDescriptor
		raw      any
		expected string
	}{
		{"bool", prim("b", model.Boolean), true, "true"},
		{"bool from integer", prim("b", model.Boolean), int64(0), "false"},
		{"int", prim("i", model.Integer32), int64(13362), "13362"},
		{"int max", prim("i", model.Integer32), int64(math.MaxInt32), "2147483647"},
		{"int min", prim("i", model.Integer32), int64(math.MinInt32), "-2147483648"},
		{"long", prim("l", model.Integer64), int64(-1412873783869441), "-1412873783869441.0"},
		{"long from json float", prim("l", model.Integer64), float64(384242), "384242.0"},
		{"double", prim("d", model.Double), 3.13, "3.13"},
		{"double integral", prim("d", model.Double), float64(2), "2.0"},
		{"double from integer", prim("d", model.Double), int64(7), "7.0"},
		{"string", prim("s", model.String), "Hello, World", `"Hello, World"`},
		{"binary", prim("bin", model.Binary), []byte{0x01, 0x02, 0x03}, `"encoding=base64;AQID"`},
		{"datetime unspecified", prim("dt", model.DateTime), dt, `"2017-01-17T00:00:00.000"`},
		{"datetime utc", utc, time.Date(2018, 2, 17, 0, 0, 0, 0, time.UTC), `"2018-02-17T00:00:00.000Z"`},
		{"point2d", prim("p2d", model.Point2d), model.Point2dValue{X: 2, Y: 4}, `{"X":2.0,"Y":4.0}`},
		{"point3d", prim("p3d", model.Point3d), model.Point3dValue{X: 4, Y: 5, Z: 6}, `{"X":4.0,"Y":5.0,"Z":6.0}`},
		{"geometry", prim("g", model.Geometry), []byte(` {"lineSegment":[[0,0,0],[1,1,1]]} `), `{"lineSegment":[[0,0,0],[1,1,1]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := enc.Encode(&tt.prop, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, render(t, v))
		})
	}
}

func TestEncodeNullPrimitiveIsUnset(t *testing.T) {
	enc := New(fakeShapes{})
	p := prim("s", model.String)
	v, err := enc.Encode(&p, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEncodeNavigation(t *testing.T) {
	enc := New(fakeShapes{})
	nav := model.PropertyDescriptor{Name: "parent", Kind: model.KindNavigation, RelClass: relClass}

	v, err := enc.Encode(&nav, nil)
	require.NoError(t, err)
	assert.Nil(t, v, "unset navigation is omitted")

	v, err = enc.Encode(&nav, model.NavValue{})
	require.NoError(t, err)
	assert.Nil(t, v, "zero target id is unset")

	v, err = enc.Encode(&nav, model.NavValue{ID: 0x2e})
	require.NoError(t, err)
	assert.Equal(t, `{"Id":"0x2e","RelECClassId":"TestSchema.e_mix_has_base_mix"}`, render(t, v))

	v, err = enc.Encode(&nav, model.NavValue{ID: 1, RelClass: otherRelClass})
	require.NoError(t, err)
	assert.Equal(t, `{"Id":"0x1","RelECClassId":"TestSchema.other_rel"}`, render(t, v))

	_, err = enc.Encode(&nav, model.NavValue{ID: 1, RelClass: 999})
	assert.True(t, model.IsUnknownClass(err))
}

func TestEncodeStruct(t *testing.T) {
	p := model.PropertyDescriptor{Name: "p", Kind: model.KindStruct, StructClass: structPClass}

	enc := New(fakeShapes{})
	v, err := enc.Encode(&p, model.StructValue{
		"p2d": model.Point2dValue{X: 1, Y: 2},
		"s":   "x",
		"b":   true,
		"i":   nil,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"b":true,"s":"x","p2d":{"X":1.0,"Y":2.0}}`, render(t, v), "declared member order")

	v, err = enc.Encode(&p, model.StructValue{"b": nil})
	require.NoError(t, err)
	assert.Equal(t, `{}`, render(t, v))

	v, err = enc.Encode(&p, nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, render(t, v))

	omit := New(fakeShapes{}, WithPolicy(Policy{NullStructs: OmitNullStruct}))
	v, err = omit.Encode(&p, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEncodeArrays(t *testing.T) {
	longs := model.PropertyDescriptor{Name: "l_array", Kind: model.KindArray, Element: model.KindPrimitive, Primitive: model.Integer64}
	structs := model.PropertyDescriptor{Name: "array_of_p", Kind: model.KindArray, Element: model.KindStruct, StructClass: structPClass}

	enc := New(fakeShapes{})

	v, err := enc.Encode(&longs, []any{int64(384242), int64(-234923), int64(528291)})
	require.NoError(t, err)
	assert.Equal(t, `[384242.0,-234923.0,528291.0]`, render(t, v))

	v, err = enc.Encode(&longs, []any{int64(1), nil})
	require.NoError(t, err)
	assert.Equal(t, `[1.0,null]`, render(t, v))

	v, err = enc.Encode(&longs, []any{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, render(t, v))

	v, err = enc.Encode(&longs, nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, render(t, v))

	v, err = enc.Encode(&structs, []any{model.StructValue{"i": int64(3)}, model.StructValue{}, nil})
	require.NoError(t, err)
	assert.Equal(t, `[{"i":3},{},null]`, render(t, v))

	omit := New(fakeShapes{}, WithPolicy(Policy{NullArrays: OmitNullArray, NullStructs: OmitNullStruct}))
	v, err = omit.Encode(&longs, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = omit.Encode(&structs, []any{model.StructValue{}})
	require.NoError(t, err)
	assert.Equal(t, `[{}]`, render(t, v), "array elements are never omitted")
}

func TestEncodeMalformed(t *testing.T) {
	enc := New(fakeShapes{})

	tests := []struct {
		name string
		prop model.PropertyDescriptor
		raw  any
	}{
		{"unknown kind", model.PropertyDescriptor{Name: "x"}, "v"},
		{"unknown primitive", model.PropertyDescriptor{Name: "x", Kind: model.KindPrimitive}, "v"},
		{"type mismatch", prim("i", model.Integer32), "not a number"},
		{"fractional long", prim("l", model.Integer64), 1.5},
		{"int above range", prim("i", model.Integer32), int64(3000000000)},
		{"int below range", prim("i", model.Integer32), int64(math.MinInt32) - 1},
		{"int array element out of range", model.PropertyDescriptor{Name: "i_array", Kind: model.KindArray, Element: model.KindPrimitive, Primitive: model.Integer32}, []any{int64(1), int64(1 << 32)}},
		{"navigation mismatch", model.PropertyDescriptor{Name: "n", Kind: model.KindNavigation}, int64(3)},
		{"array element kind", model.PropertyDescriptor{Name: "a", Kind: model.KindArray, Element: model.KindNavigation}, []any{int64(1)}},
		{"array payload", model.PropertyDescriptor{Name: "a", Kind: model.KindArray, Element: model.KindPrimitive, Primitive: model.Integer32}, "[1]"},
		{"bad geometry", prim("g", model.Geometry), []byte("{not json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(&tt.prop, tt.raw)
			require.Error(t, err)
			assert.True(t, model.IsMalformedProperty(err), err.Error())
		})
	}
}

func TestScalarRejectsOutOfRangeInt(t *testing.T) {
	enc := New(fakeShapes{})
	p := prim("i", model.Integer32)
	got, err := enc.Scalar(&p, int64(3000000000))
	require.Error(t, err)
	assert.True(t, model.IsMalformedProperty(err))
	assert.Nil(t, got)
}

type failingCodec struct{}

func (failingCodec) ToJSON([]byte) ([]byte, error) { return nil, errors.New("codec down") }

func TestGeometryCodecError(t *testing.T) {
	enc := New(fakeShapes{}, WithGeometryCodec(failingCodec{}))
	p := prim("g", model.Geometry)
	_, err := enc.Encode(&p, []byte{0x01})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec down")
}

func TestIDFields(t *testing.T) {
	enc := New(fakeShapes{})
	assert.Equal(t, doc.String("0x2e"), enc.InstanceID(0x2e))

	v, err := enc.ClassID(structPClass)
	require.NoError(t, err)
	assert.Equal(t, doc.String("TestSchema.struct_p"), v)

	_, err = enc.ClassID(404)
	assert.True(t, model.IsUnknownClass(err))
}

func TestScalar(t *testing.T) {
	enc := New(fakeShapes{})
	dt := time.Date(2017, 1, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		prop     model.PropertyDescriptor
		raw      any
		expected any
	}{
		{"string", prim("s", model.String), "Hello, World", "Hello, World"},
		{"int", prim("i", model.Integer32), int64(13362), int64(13362)},
		{"long", prim("l", model.Integer64), int64(-5), int64(-5)},
		{"double", prim("d", model.Double), math.Pi, math.Pi},
		{"bool", prim("b", model.Boolean), true, true},
		{"binary", prim("bin", model.Binary), []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"datetime", prim("dt", model.DateTime), dt, "2017-01-17T00:00:00.000"},
		{"point2d", prim("p2d", model.Point2d), model.Point2dValue{X: 2, Y: 4}, `{"X":2.0,"Y":4.0}`},
		{"point3d", prim("p3d", model.Point3d), model.Point3dValue{X: 4, Y: 5, Z: 6}, `{"X":4.0,"Y":5.0,"Z":6.0}`},
		{"null", prim("s", model.String), nil, nil},
		{
			"array",
			model.PropertyDescriptor{Name: "b_array", Kind: model.KindArray, Element: model.KindPrimitive, Primitive: model.Boolean},
			[]any{true, false},
			`[true,false]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc.Scalar(&tt.prop, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
