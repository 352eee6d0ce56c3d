package model

import "golang.org/x/text/cases"

// Pseudo-property names every entity exposes in addition to its declared
// properties.
const (
	InstanceIDProperty = "ECInstanceId"
	ClassIDProperty    = "ECClassId"
)

// IDColumn is the primary key column every entity table carries.
const IDColumn = "Id"

// Schema names the schema a class belongs to.
type Schema struct {
	Name  string
	Alias string
}

// ClassLayout is the logical shape of one class: its bases, its own
// properties in declaration order and where it lives physically.
type ClassLayout struct {
	ID     ClassID
	Schema Schema
	Name   string
	Type   ClassType

	// Bases are direct base classes, in declaration order. Multiple bases
	// form a DAG (mixins).
	Bases []ClassID

	// Properties are the class's own properties in declaration order.
	Properties []PropertyDescriptor

	// Table is the primary physical table. Empty for structs and
	// relationships; on an entity an empty table is inherited from the
	// first base that has one.
	Table string

	// ClassIDColumn is the optional discriminator column on Table.
	ClassIDColumn string
}

// QualifiedName returns "Schema.Class".
func (c *ClassLayout) QualifiedName() string {
	return c.Schema.Name + "." + c.Name
}

// IsEntity reports whether instances of this class are rows.
func (c *ClassLayout) IsEntity() bool {
	return c.Type == ClassEntity
}

// PropertyDescriptor is the logical view of one property plus its resolved
// physical mapping.
type PropertyDescriptor struct {
	Name string
	Kind Kind

	// Primitive is set for primitive properties and primitive arrays.
	Primitive PrimitiveType

	// DateTimeKind applies when Primitive is DateTime.
	DateTimeKind DateTimeKind

	// StructClass is set for struct properties and struct arrays.
	StructClass ClassID

	// Element is the array element kind: KindPrimitive or KindStruct.
	Element Kind

	// RelClass is the declared relationship class of a navigation property.
	RelClass ClassID

	// TargetClass is the class a navigation property points at, if known.
	TargetClass ClassID

	Column ColumnMapping
}

// ElementDescriptor returns the descriptor an array element is encoded with.
func (p *PropertyDescriptor) ElementDescriptor() PropertyDescriptor {
	return PropertyDescriptor{
		Name:         p.Name,
		Kind:         p.Element,
		Primitive:    p.Primitive,
		DateTimeKind: p.DateTimeKind,
		StructClass:  p.StructClass,
	}
}

// ColumnMapping locates a property's storage.
//
//   - scalars and arrays use one column (arrays hold JSON text)
//   - Point2d/Point3d use 2/3 columns (X, Y[, Z])
//   - navigation uses 2 columns (target id, relationship class id)
//   - structs use no columns of their own; Members maps each folded member
//     name to that member's mapping, recursively
type ColumnMapping struct {
	Table   string
	Columns []string
	Members map[string]ColumnMapping
}

// FoldName returns the case-folded form used for every case-insensitive
// name comparison (property names, member names, schema and class names).
func FoldName(name string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(name)
}

// SameName reports whether two names are equal under case folding.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
