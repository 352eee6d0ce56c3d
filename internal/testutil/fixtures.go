package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/model"
)

// TestSchema class ids.
const (
	StructPClass   model.ClassID = 0x10
	StructPAClass  model.ClassID = 0x11
	MixClass       model.ClassID = 0x12
	MixRelClass    model.ClassID = 0x13
	BaseClass      model.ClassID = 0x20
	SubClass       model.ClassID = 0x21
	ShadowClass    model.ClassID = 0x22
	StructInClass  model.ClassID = 0x14
	StructOutClass model.ClassID = 0x15
	PClass         model.ClassID = 0x30
	NestClass      model.ClassID = 0x31
)

// TestSchema is the schema every fixture class belongs to.
var TestSchema = model.Schema{Name: "TestSchema", Alias: "ts"}

// Prim declares a primitive property with default column naming.
func Prim(name string, p model.PrimitiveType) model.PropertyDescriptor {
	return mapped(model.PropertyDescriptor{Name: name, Kind: model.KindPrimitive, Primitive: p}, "")
}

// UtcDateTime declares a DateTime property with the Utc kind.
func UtcDateTime(name string) model.PropertyDescriptor {
	p := Prim(name, model.DateTime)
	p.DateTimeKind = model.DateTimeUtc
	return p
}

// PrimArray declares an array of primitives.
func PrimArray(name string, p model.PrimitiveType) model.PropertyDescriptor {
	return mapped(model.PropertyDescriptor{Name: name, Kind: model.KindArray, Element: model.KindPrimitive, Primitive: p}, "")
}

// UtcDateTimeArray declares an array of Utc timestamps.
func UtcDateTimeArray(name string) model.PropertyDescriptor {
	p := PrimArray(name, model.DateTime)
	p.DateTimeKind = model.DateTimeUtc
	return p
}

// Nav declares a navigation property.
func Nav(name string, rel model.ClassID) model.PropertyDescriptor {
	return mapped(model.PropertyDescriptor{Name: name, Kind: model.KindNavigation, RelClass: rel}, "")
}

// StructProp declares a struct property of class cls whose members are
// members (the struct class's own properties). Member columns are prefixed
// with name, and nested struct members carry the prefix down.
func StructProp(name string, cls model.ClassID, members []model.PropertyDescriptor) model.PropertyDescriptor {
	p := model.PropertyDescriptor{Name: name, Kind: model.KindStruct, StructClass: cls}
	p.Column.Members = make(map[string]model.ColumnMapping, len(members))
	for _, m := range members {
		p.Column.Members[model.FoldName(m.Name)] = prefixed(m.Column, name+"_")
	}
	return p
}

func prefixed(c model.ColumnMapping, prefix string) model.ColumnMapping {
	var out model.ColumnMapping
	for _, col := range c.Columns {
		out.Columns = append(out.Columns, prefix+col)
	}
	if c.Members != nil {
		out.Members = make(map[string]model.ColumnMapping, len(c.Members))
		for k, m := range c.Members {
			out.Members[k] = prefixed(m, prefix)
		}
	}
	return out
}

// StructArray declares an array of structs.
func StructArray(name string, cls model.ClassID) model.PropertyDescriptor {
	return mapped(model.PropertyDescriptor{Name: name, Kind: model.KindArray, Element: model.KindStruct, StructClass: cls}, "")
}

// OnTable pins p's columns to table.
func OnTable(p model.PropertyDescriptor, table string) model.PropertyDescriptor {
	p.Column.Table = table
	return p
}

func mapped(p model.PropertyDescriptor, prefix string) model.PropertyDescriptor {
	col := prefix + p.Name
	switch {
	case p.Kind == model.KindPrimitive && p.Primitive == model.Point2d:
		p.Column.Columns = []string{col + "_X", col + "_Y"}
	case p.Kind == model.KindPrimitive && p.Primitive == model.Point3d:
		p.Column.Columns = []string{col + "_X", col + "_Y", col + "_Z"}
	case p.Kind == model.KindNavigation:
		p.Column.Columns = []string{col + "Id", col + "RelECClassId"}
	default:
		p.Column.Columns = []string{col}
	}
	return p
}

// StructPProperties are the members of ts.struct_p.
func StructPProperties() []model.PropertyDescriptor {
	return []model.PropertyDescriptor{
		Prim("b", model.Boolean),
		Prim("bi", model.Binary),
		Prim("d", model.Double),
		Prim("dt", model.DateTime),
		UtcDateTime("dtUtc"),
		Prim("i", model.Integer32),
		Prim("l", model.Integer64),
		Prim("s", model.String),
		Prim("p2d", model.Point2d),
		Prim("p3d", model.Point3d),
		Prim("geom", model.Geometry),
	}
}

// StructPAProperties are the members of ts.struct_pa.
func StructPAProperties() []model.PropertyDescriptor {
	return []model.PropertyDescriptor{
		PrimArray("b_array", model.Boolean),
		PrimArray("bi_array", model.Binary),
		PrimArray("d_array", model.Double),
		PrimArray("dt_array", model.DateTime),
		UtcDateTimeArray("dtUtc_array"),
		PrimArray("i_array", model.Integer32),
		PrimArray("l_array", model.Integer64),
		PrimArray("s_array", model.String),
		PrimArray("p2d_array", model.Point2d),
		PrimArray("p3d_array", model.Point3d),
		PrimArray("geom_array", model.Geometry),
	}
}

// StructInProperties are the members of ts.struct_in.
func StructInProperties() []model.PropertyDescriptor {
	return []model.PropertyDescriptor{
		Prim("tag", model.String),
		StructArray("items", StructPClass),
	}
}

// StructOutProperties are the members of ts.struct_out.
func StructOutProperties() []model.PropertyDescriptor {
	return []model.PropertyDescriptor{
		Prim("name", model.String),
		StructProp("inner", StructInClass, StructInProperties()),
		StructArray("inners", StructInClass),
	}
}

// Layouts returns the TestSchema fixture classes:
//
//	ts.struct_p, ts.struct_pa             structs of primitives / primitive arrays
//	ts.e_mix                              every property shape, one table
//	ts.e_mix_has_base_mix                 relationship for e_mix.parent
//	ts.Base <- ts.Sub                     Sub's own columns live in joined table ts_Sub
//	ts.Base <- ts.Shadow                  Shadow redeclares Prop2 as long
//	ts.P                                  primitives only, no discriminator
//	ts.struct_in, ts.struct_out           struct_out nests struct_in, which holds struct_p elements
//	ts.Nest                               struct_out stored inline, one table
func Layouts() []model.ClassLayout {
	mixProps := []model.PropertyDescriptor{Nav("parent", MixRelClass)}
	mixProps = append(mixProps, StructPProperties()...)
	mixProps = append(mixProps, StructPAProperties()...)
	mixProps = append(mixProps,
		StructProp("p", StructPClass, StructPProperties()),
		StructProp("pa", StructPAClass, StructPAProperties()),
		StructArray("array_of_p", StructPClass),
		StructArray("array_of_pa", StructPAClass),
	)

	return []model.ClassLayout{
		{ID: StructPClass, Schema: TestSchema, Name: "struct_p", Type: model.ClassStruct, Properties: StructPProperties()},
		{ID: StructPAClass, Schema: TestSchema, Name: "struct_pa", Type: model.ClassStruct, Properties: StructPAProperties()},
		{
			ID: MixClass, Schema: TestSchema, Name: "e_mix", Type: model.ClassEntity,
			Table: "ts_e_mix", ClassIDColumn: "ECClassId",
			Properties: mixProps,
		},
		{ID: MixRelClass, Schema: TestSchema, Name: "e_mix_has_base_mix", Type: model.ClassRelationship},
		{
			ID: BaseClass, Schema: TestSchema, Name: "Base", Type: model.ClassEntity,
			Table: "ts_Base", ClassIDColumn: "ECClassId",
			Properties: []model.PropertyDescriptor{
				Prim("Prop1", model.String),
				Prim("Prop2", model.Integer32),
			},
		},
		{
			ID: SubClass, Schema: TestSchema, Name: "Sub", Type: model.ClassEntity,
			Bases: []model.ClassID{BaseClass},
			Properties: []model.PropertyDescriptor{
				OnTable(Prim("SubProp1", model.String), "ts_Sub"),
				OnTable(Prim("SubProp2", model.Double), "ts_Sub"),
			},
		},
		{
			ID: ShadowClass, Schema: TestSchema, Name: "Shadow", Type: model.ClassEntity,
			Bases: []model.ClassID{BaseClass},
			Properties: []model.PropertyDescriptor{
				Prim("prop2", model.Integer64),
				Prim("Extra", model.String),
			},
		},
		{
			ID: PClass, Schema: TestSchema, Name: "P", Type: model.ClassEntity,
			Table: "ts_P",
			Properties: []model.PropertyDescriptor{
				Prim("s", model.String),
				Prim("i", model.Integer32),
				Prim("l", model.Integer64),
				Prim("d", model.Double),
				Prim("b", model.Boolean),
				Prim("dt", model.DateTime),
				UtcDateTime("dtUtc"),
				Prim("bin", model.Binary),
				Prim("p2d", model.Point2d),
				Prim("p3d", model.Point3d),
				Prim("geom", model.Geometry),
			},
		},
		{ID: StructInClass, Schema: TestSchema, Name: "struct_in", Type: model.ClassStruct, Properties: StructInProperties()},
		{ID: StructOutClass, Schema: TestSchema, Name: "struct_out", Type: model.ClassStruct, Properties: StructOutProperties()},
		{
			ID: NestClass, Schema: TestSchema, Name: "Nest", Type: model.ClassEntity,
			Table: "ts_Nest",
			Properties: []model.PropertyDescriptor{
				Prim("code", model.Integer32),
				StructProp("o", StructOutClass, StructOutProperties()),
			},
		},
	}
}

// Catalog builds the fixture catalog, failing the test on error.
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(Layouts())
	require.NoError(t, err)
	return cat
}
