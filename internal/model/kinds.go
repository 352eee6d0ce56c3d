package model

import "strings"

// ClassType distinguishes what a class may be used for.
type ClassType int

const (
	ClassEntity ClassType = iota + 1
	ClassStruct
	ClassRelationship
)

func (t ClassType) String() string {
	switch t {
	case ClassEntity:
		return "entity"
	case ClassStruct:
		return "struct"
	case ClassRelationship:
		return "relationship"
	default:
		return "unknown"
	}
}

// Kind is the closed set of property shapes.
// The zero value is deliberately invalid so an unset kind is caught by the
// encoder instead of being coerced.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrimitive
	KindStruct
	KindArray
	KindNavigation
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindNavigation:
		return "navigation"
	default:
		return "unknown"
	}
}

// PrimitiveType is the subkind of a primitive (or primitive array) property.
type PrimitiveType int

const (
	PrimitiveUnknown PrimitiveType = iota
	Boolean
	Integer32
	Integer64
	Double
	String
	Binary
	DateTime
	Point2d
	Point3d
	Geometry
)

var primitiveNames = map[PrimitiveType]string{
	Boolean:   "boolean",
	Integer32: "int",
	Integer64: "long",
	Double:    "double",
	String:    "string",
	Binary:    "binary",
	DateTime:  "dateTime",
	Point2d:   "point2d",
	Point3d:   "point3d",
	Geometry:  "geometry",
}

func (p PrimitiveType) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePrimitiveType maps a type name as written in model definitions to its
// subkind. Matching is case-insensitive; "Bentley.Geometry.Common.IGeometry"
// is accepted as an alias for geometry.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	lower := strings.ToLower(name)
	if lower == "bentley.geometry.common.igeometry" {
		return Geometry, true
	}
	for p, n := range primitiveNames {
		if strings.ToLower(n) == lower {
			return p, true
		}
	}
	return PrimitiveUnknown, false
}

// DateTimeKind tells the encoder whether a timestamp carries a UTC marker.
type DateTimeKind int

const (
	DateTimeUnspecified DateTimeKind = iota
	DateTimeUtc
)

func (k DateTimeKind) String() string {
	if k == DateTimeUtc {
		return "Utc"
	}
	return "Unspecified"
}
