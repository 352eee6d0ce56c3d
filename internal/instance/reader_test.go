package instance

import (
	"context"
	"testing"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/testutil"
)

func TestPropExistsAcrossHierarchy(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		class model.ClassID
		name  string
		want  bool
	}{
		{testutil.SubClass, "Prop1", true},
		{testutil.SubClass, "Prop2", true},
		{testutil.SubClass, "SubProp1", true},
		{testutil.SubClass, "SubProp2", true},
		{testutil.SubClass, "subprop1", true},
		{testutil.SubClass, "PROP1", true},
		{testutil.SubClass, "ECInstanceId", true},
		{testutil.SubClass, "ecclassid", true},
		{testutil.SubClass, "Nope", false},
		{testutil.BaseClass, "Prop1", true},
		{testutil.BaseClass, "SubProp1", false},
		{testutil.BaseClass, "SubProp2", false},
		{testutil.StructPClass, "p2d", true},
	}
	for _, tt := range tests {
		got, err := f.reader.PropExists(tt.class, tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "PropExists(%d, %q)", tt.class, tt.name)
	}
}

func TestPropExistsUnknownClass(t *testing.T) {
	f := newFixture(t)

	_, err := f.reader.PropExists(0x999, "Prop1")
	assert.True(t, model.IsUnknownClass(err))

	_, err = f.reader.PropExists(0x999, "ECInstanceId")
	assert.True(t, model.IsUnknownClass(err))
}

func TestMaterializeSimpleInstance(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 1, map[string]any{
		"s":   "Hello, World",
		"i":   int64(0x3432),
		"p2d": model.Point2dValue{X: 2, Y: 4},
	})

	got, err := f.reader.MaterializeJSON(context.Background(), testutil.PClass, 1)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ECInstanceId":"0x1","ECClassId":"TestSchema.P","s":"Hello, World","i":13362,"p2d":{"X":2.0,"Y":4.0}}`,
		got)
}

func TestMaterializeIncludesBaseFieldsFirst(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.SubClass, 0x2a, map[string]any{
		"Prop1":    "base",
		"Prop2":    int64(7),
		"SubProp1": "sub",
		"SubProp2": 1.5,
	})

	obj, err := f.reader.MaterializeInstance(context.Background(), testutil.SubClass, 0x2a)
	require.NoError(t, err)
	assert.Equal(t, []string{"ECInstanceId", "ECClassId", "Prop1", "Prop2", "SubProp1", "SubProp2"}, obj.Keys())

	got, err := doc.MarshalString(obj)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ECInstanceId":"0x2a","ECClassId":"TestSchema.Sub","Prop1":"base","Prop2":7,"SubProp1":"sub","SubProp2":1.5}`,
		got)
}

func TestMaterializeExactClassOnly(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.SubClass, 5, map[string]any{"Prop1": "x"})

	// The row belongs to Sub; reading it as Base does not match the
	// discriminator.
	_, err := f.reader.MaterializeInstance(context.Background(), testutil.BaseClass, 5)
	assert.True(t, model.IsInstanceNotFound(err))
}

func TestShadowedPropertyUsesDerivedType(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.ShadowClass, 3, map[string]any{
		"Prop1": "p",
		"prop2": int64(-234923),
		"Extra": "e",
	})

	v, err := f.reader.ExtractProperty(context.Background(), testutil.ShadowClass, 3, "PROP2")
	require.NoError(t, err)
	assert.Equal(t, doc.Long(-234923), v)

	got, err := f.reader.MaterializeJSON(context.Background(), testutil.ShadowClass, 3)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ECInstanceId":"0x3","ECClassId":"TestSchema.Shadow","Prop1":"p","prop2":-234923.0,"Extra":"e"}`,
		got)
}

func TestMaterializeOmitsUnsetValues(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.MixClass, 9, map[string]any{"s": "only"})

	obj, err := f.reader.MaterializeInstance(context.Background(), testutil.MixClass, 9)
	require.NoError(t, err)

	_, hasParent := obj.Get("parent")
	assert.False(t, hasParent, "unset navigation is omitted")
	_, hasI := obj.Get("i")
	assert.False(t, hasI, "null primitive is omitted")

	p, ok := obj.Get("p")
	require.True(t, ok, "declared struct is present")
	assert.Equal(t, doc.Object{}, p)

	arr, ok := obj.Get("d_array")
	require.True(t, ok)
	assert.Equal(t, doc.Array{}, arr)
}

func TestMaterializeNullPolicies(t *testing.T) {
	f := newFixture(t, WithOptions(Options{NullArrays: OmitNullArray, NullStructs: OmitNullStruct}))
	f.insert(t, testutil.MixClass, 9, map[string]any{"s": "only"})

	got, err := f.reader.MaterializeJSON(context.Background(), testutil.MixClass, 9)
	require.NoError(t, err)
	assert.Equal(t, `{"ECInstanceId":"0x9","ECClassId":"TestSchema.e_mix","s":"only"}`, got)

	v, err := f.reader.ExtractProperty(context.Background(), testutil.MixClass, 9, "p")
	require.NoError(t, err)
	assert.Equal(t, doc.Null{}, v)
}

func nestedValues() map[string]any {
	return map[string]any{
		"code": int64(7),
		"o": map[string]any{
			"name": "outer",
			"inner": map[string]any{
				"tag": "in",
				"items": []any{
					map[string]any{"s": "a", "i": int64(1)},
					nil,
					map[string]any{"p2d": model.Point2dValue{X: 1, Y: 2}},
				},
			},
			"inners": []any{
				map[string]any{"tag": "x", "items": []any{map[string]any{"b": true}}},
				map[string]any{"tag": "y"},
			},
		},
	}
}

func TestMaterializeNestedStructs(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.NestClass, 1, nestedValues())
	ctx := context.Background()

	got, err := f.reader.MaterializeJSON(ctx, testutil.NestClass, 1)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ECInstanceId":"0x1","ECClassId":"TestSchema.Nest","code":7,`+
			`"o":{"name":"outer",`+
			`"inner":{"tag":"in","items":[{"i":1,"s":"a"},null,{"p2d":{"X":1.0,"Y":2.0}}]},`+
			`"inners":[{"tag":"x","items":[{"b":true}]},{"tag":"y","items":[]}]}}`,
		got)

	v, err := f.reader.ExtractProperty(ctx, testutil.NestClass, 1, "o")
	require.NoError(t, err)
	obj, ok := v.(doc.Object)
	require.True(t, ok)
	var keys []string
	for _, m := range obj {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"name", "inner", "inners"}, keys, "members follow the declared order")

	inner, ok := obj.Get("inner")
	require.True(t, ok)
	rendered, err := doc.MarshalString(inner)
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"in","items":[{"i":1,"s":"a"},null,{"p2d":{"X":1.0,"Y":2.0}}]}`, rendered)
}

func TestNestedStructUnsetAllTheWayDown(t *testing.T) {
	ctx := context.Background()

	emit := newFixture(t)
	emit.insert(t, testutil.NestClass, 2, map[string]any{"code": int64(1)})
	got, err := emit.reader.MaterializeJSON(ctx, testutil.NestClass, 2)
	require.NoError(t, err)
	assert.Equal(t, `{"ECInstanceId":"0x2","ECClassId":"TestSchema.Nest","code":1,"o":{}}`, got)

	omit := newFixture(t, WithOptions(Options{NullArrays: OmitNullArray, NullStructs: OmitNullStruct}))
	omit.insert(t, testutil.NestClass, 2, map[string]any{"code": int64(1)})
	got, err = omit.reader.MaterializeJSON(ctx, testutil.NestClass, 2)
	require.NoError(t, err)
	assert.Equal(t, `{"ECInstanceId":"0x2","ECClassId":"TestSchema.Nest","code":1}`, got)

	v, err := omit.reader.ExtractProperty(ctx, testutil.NestClass, 2, "o")
	require.NoError(t, err)
	assert.Equal(t, doc.Null{}, v)
}

func TestMaterializeFullMix(t *testing.T) {
	f := newFixture(t)
	values := testutil.MixValues()
	values["parent"] = model.NavValue{ID: 0x11}
	f.insert(t, testutil.MixClass, 0x100, values)

	text, err := f.reader.MaterializeJSON(context.Background(), testutil.MixClass, 0x100)
	require.NoError(t, err)
	root, err := oj.ParseString(text)
	require.NoError(t, err)

	get := func(path string) any {
		t.Helper()
		x, err := jp.ParseString(path)
		require.NoError(t, err)
		res := x.Get(root)
		require.Len(t, res, 1, "path %s", path)
		return res[0]
	}

	assert.Equal(t, "0x100", get("$.ECInstanceId"))
	assert.Equal(t, "TestSchema.e_mix", get("$.ECClassId"))
	assert.Equal(t, "0x11", get("$.parent.Id"))
	assert.Equal(t, "TestSchema.e_mix_has_base_mix", get("$.parent.RelECClassId"))
	assert.Equal(t, "encoding=base64;SGVsbG8sIFdvcmxkIQ==", get("$.bi"))
	assert.Equal(t, "2017-01-17T00:00:00.000", get("$.dt"))
	assert.Equal(t, "2018-02-17T00:00:00.000Z", get("$.dtUtc"))
	assert.Equal(t, int64(-328961), get("$.i"))
	assert.Equal(t, 22.33, get("$.p2d.X"))
	assert.Equal(t, -93.12, get("$.p3d.Z"))
	assert.Equal(t, int64(1), get("$.geom.lineSegment[1][0]"))
	assert.Equal(t, "2019-01-10T00:00:00.000Z", get("$.dtUtc_array[2]"))
	assert.Equal(t, "encoding=base64;SGUG", get("$.bi_array[0]"))
	assert.Equal(t, "Hello, World!", get("$.p.s"))
	assert.Equal(t, "System", get("$.pa.s_array[1]"))
	assert.Equal(t, int64(-4923), get("$.array_of_p[1].i"))
	assert.Equal(t, -42.74, get("$.array_of_p[1].p2d.X"))
	assert.Equal(t, int64(8291), get("$.array_of_pa[0].i_array[2]"))

	// Integer64 carries the ".0" marker; doubles keep their digits.
	assert.Contains(t, text, `"l":-1412873783869441.0`)
	assert.Contains(t, text, `"l_array":[384242.0,-234923.0,528291.0]`)
	assert.Contains(t, text, `"d":3.141592653589793`)
}

func TestExtractProperty(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 4, map[string]any{
		"s":   "text",
		"l":   int64(42),
		"dt":  time.Date(2020, 5, 6, 7, 8, 9, 10_000_000, time.UTC),
		"p3d": model.Point3dValue{X: 1, Y: 2.5, Z: -3},
	})
	ctx := context.Background()

	tests := []struct {
		name string
		want string
	}{
		{"s", `"text"`},
		{"S", `"text"`},
		{"l", `42.0`},
		{"dt", `"2020-05-06T07:08:09.010"`},
		{"p3d", `{"X":1.0,"Y":2.5,"Z":-3.0}`},
		{"i", `null`},
		{"geom", `null`},
		{"ECInstanceId", `"0x4"`},
		{"ECClassId", `"TestSchema.P"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.reader.ExtractProperty(ctx, testutil.PClass, 4, tt.name)
			require.NoError(t, err)
			got, err := doc.MarshalString(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPropertyErrors(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 1, map[string]any{"s": "x"})
	ctx := context.Background()

	_, err := f.reader.ExtractProperty(ctx, testutil.PClass, 1, "missing")
	assert.True(t, model.IsPropertyNotFound(err))

	// Property lookup happens before the row read.
	_, err = f.reader.ExtractProperty(ctx, testutil.PClass, 2, "missing")
	assert.True(t, model.IsPropertyNotFound(err))

	_, err = f.reader.ExtractProperty(ctx, testutil.PClass, 2, "s")
	assert.True(t, model.IsInstanceNotFound(err))

	_, err = f.reader.ExtractProperty(ctx, 0x999, 1, "s")
	assert.True(t, model.IsUnknownClass(err))

	_, err = f.reader.MaterializeInstance(ctx, testutil.PClass, 2)
	assert.True(t, model.IsInstanceNotFound(err))
}

func TestMaterializeNonEntityClass(t *testing.T) {
	f := newFixture(t)

	_, err := f.reader.MaterializeInstance(context.Background(), testutil.StructPClass, 1)
	require.Error(t, err)
	assert.True(t, model.IsUnknownClass(err))
	assert.Contains(t, err.Error(), "struct class TestSchema.struct_p has no instances")
}

func TestExtractScalar(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 7, map[string]any{
		"s":     "Hello",
		"i":     int64(0x3432),
		"l":     int64(1 << 40),
		"d":     2.5,
		"b":     true,
		"dtUtc": time.Date(2018, 2, 17, 0, 0, 0, 0, time.UTC),
		"bin":   []byte{1, 2, 3},
		"p2d":   model.Point2dValue{X: 2, Y: 4},
	})
	ctx := context.Background()

	tests := []struct {
		name string
		want any
	}{
		{"s", "Hello"},
		{"i", int64(13362)},
		{"l", int64(1 << 40)},
		{"d", 2.5},
		{"b", true},
		{"dtUtc", "2018-02-17T00:00:00.000Z"},
		{"bin", []byte{1, 2, 3}},
		{"p2d", `{"X":2.0,"Y":4.0}`},
		{"p3d", nil},
		{"ECInstanceId", int64(7)},
		{"ECClassId", int64(testutil.PClass)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.reader.ExtractScalar(ctx, testutil.PClass, 7, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalarMatchesDocument(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 8, map[string]any{
		"s": "round trip",
		"i": int64(-17),
		"d": 0.1,
	})
	ctx := context.Background()

	for _, name := range []string{"s", "i", "d"} {
		scalar, err := f.reader.ExtractScalar(ctx, testutil.PClass, 8, name)
		require.NoError(t, err)
		v, err := f.reader.ExtractProperty(ctx, testutil.PClass, 8, name)
		require.NoError(t, err)

		switch want := scalar.(type) {
		case string:
			assert.Equal(t, doc.String(want), v)
		case int64:
			assert.Equal(t, doc.Int(want), v)
		case float64:
			assert.Equal(t, doc.Double(want), v)
		}
	}
}
