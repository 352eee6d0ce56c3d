package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/model"
)

var testSchema = model.Schema{Name: "TestSchema", Alias: "ts"}

func prim(name string, p model.PrimitiveType) model.PropertyDescriptor {
	return model.PropertyDescriptor{Name: name, Kind: model.KindPrimitive, Primitive: p}
}

func entity(id model.ClassID, name string, bases []model.ClassID, props ...model.PropertyDescriptor) model.ClassLayout {
	return model.ClassLayout{
		ID:         id,
		Schema:     testSchema,
		Name:       name,
		Type:       model.ClassEntity,
		Bases:      bases,
		Properties: props,
	}
}

func hierarchy(t *testing.T) *Catalog {
	t.Helper()
	base := entity(1, "Base", nil, prim("Prop1", model.String), prim("Prop2", model.Integer32))
	base.Table = "ts_Base"
	base.ClassIDColumn = "ECClassId"
	sub := entity(2, "Sub", []model.ClassID{1}, prim("SubProp1", model.String), prim("SubProp2", model.Double))
	cat, err := New([]model.ClassLayout{base, sub})
	require.NoError(t, err)
	return cat
}

func names(chain []*model.ClassLayout) []string {
	out := make([]string, len(chain))
	for i, l := range chain {
		out[i] = l.Name
	}
	return out
}

func TestResolve(t *testing.T) {
	cat := hierarchy(t)

	l, err := cat.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, "Sub", l.Name)

	_, err = cat.Resolve(99)
	assert.True(t, model.IsUnknownClass(err))
}

func TestSubclassInheritsTable(t *testing.T) {
	cat := hierarchy(t)

	l, err := cat.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, "ts_Base", l.Table)
	assert.Equal(t, "ECClassId", l.ClassIDColumn)
}

func TestQualifiedName(t *testing.T) {
	cat := hierarchy(t)

	name, err := cat.QualifiedName(1)
	require.NoError(t, err)
	assert.Equal(t, "TestSchema.Base", name)

	_, err = cat.QualifiedName(42)
	assert.True(t, model.IsUnknownClass(err))
}

func TestLookupClass(t *testing.T) {
	cat := hierarchy(t)

	tests := []struct {
		name string
		want model.ClassID
	}{
		{"ts.Base", 1},
		{"ts.base", 1},
		{"TestSchema.Sub", 2},
		{"TESTSCHEMA.SUB", 2},
		{"ts:Sub", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := cat.LookupClass(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	for _, bad := range []string{"Base", "ts.", ".Base", "ts.Missing", "other.Base"} {
		_, err := cat.LookupClass(bad)
		assert.True(t, model.IsUnknownClass(err), bad)
	}
}

func TestAncestorChainDiamond(t *testing.T) {
	// Root <- Left, Root <- Right, {Left, Right} <- Leaf
	root := entity(1, "Root", nil, prim("R", model.String))
	root.Table = "ts_Root"
	left := entity(2, "Left", []model.ClassID{1}, prim("L", model.String))
	right := entity(3, "Right", []model.ClassID{1}, prim("Rt", model.String))
	leaf := entity(4, "Leaf", []model.ClassID{2, 3}, prim("F", model.String))

	cat, err := New([]model.ClassLayout{leaf, right, left, root})
	require.NoError(t, err)

	chain, err := cat.AncestorChain(4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Root", "Left", "Right", "Leaf"}, names(chain))

	props, err := cat.EffectiveProperties(4)
	require.NoError(t, err)
	var got []string
	for _, p := range props {
		got = append(got, p.Name)
	}
	assert.Equal(t, []string{"R", "L", "Rt", "F"}, got)
}

func TestEffectivePropertiesShadowing(t *testing.T) {
	base := entity(1, "Base", nil, prim("A", model.String), prim("B", model.Integer32))
	base.Table = "ts_Base"
	sub := entity(2, "Sub", []model.ClassID{1}, prim("b", model.Integer64), prim("C", model.Double))

	cat, err := New([]model.ClassLayout{base, sub})
	require.NoError(t, err)

	props, err := cat.EffectiveProperties(2)
	require.NoError(t, err)
	require.Len(t, props, 3)
	assert.Equal(t, "A", props[0].Name)
	assert.Equal(t, "b", props[1].Name)
	assert.Equal(t, model.Integer64, props[1].Primitive)
	assert.Equal(t, "C", props[2].Name)

	p, ok, err := cat.FindProperty(2, "B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Integer64, p.Primitive)

	p, ok, err = cat.FindProperty(1, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Integer32, p.Primitive)

	_, ok, err = cat.FindProperty(1, "C")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEffectivePropertiesEmpty(t *testing.T) {
	empty := entity(1, "Empty", nil)
	empty.Table = "ts_Empty"
	cat, err := New([]model.ClassLayout{empty})
	require.NoError(t, err)

	props, err := cat.EffectiveProperties(1)
	require.NoError(t, err)
	assert.NotNil(t, props)
	assert.Empty(t, props)
}

func TestNewRejectsInvalidHierarchies(t *testing.T) {
	tests := []struct {
		name    string
		layouts []model.ClassLayout
		want    string
	}{
		{
			name:    "duplicate id",
			layouts: []model.ClassLayout{entity(1, "A", nil), entity(1, "B", nil)},
			want:    "duplicate class id",
		},
		{
			name:    "unknown base",
			layouts: []model.ClassLayout{entity(1, "A", []model.ClassID{7})},
			want:    "unknown base",
		},
		{
			name:    "self cycle",
			layouts: []model.ClassLayout{entity(1, "A", []model.ClassID{1})},
			want:    "TestSchema.A -> TestSchema.A",
		},
		{
			name: "two node cycle",
			layouts: []model.ClassLayout{
				entity(1, "A", []model.ClassID{2}),
				entity(2, "B", []model.ClassID{1}),
			},
			want: "TestSchema.A -> TestSchema.B -> TestSchema.A",
		},
		{
			name: "cycle behind a tail",
			layouts: []model.ClassLayout{
				entity(1, "D", []model.ClassID{2}),
				entity(2, "A", []model.ClassID{3}),
				entity(3, "B", []model.ClassID{4}),
				entity(4, "C", []model.ClassID{2}),
			},
			want: "inheritance cycle: TestSchema.A -> TestSchema.B -> TestSchema.C -> TestSchema.A",
		},
		{
			name:    "zero id",
			layouts: []model.ClassLayout{entity(0, "A", nil)},
			want:    "has no id",
		},
		{
			name:    "name clash",
			layouts: []model.ClassLayout{entity(1, "A", nil), entity(2, "a", nil)},
			want:    "share the name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.layouts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidHierarchy))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConcurrentReaders(t *testing.T) {
	cat := hierarchy(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chain, err := cat.AncestorChain(2)
			assert.NoError(t, err)
			assert.Len(t, chain, 2)
			_, ok, err := cat.FindProperty(2, "prop1")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestClassesOrdered(t *testing.T) {
	cat, err := New([]model.ClassLayout{entity(5, "E", nil), entity(2, "B", nil), entity(9, "I", nil)})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "E", "I"}, names(cat.Classes()))
}
