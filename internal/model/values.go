package model

// Raw values handed from storage to the encoder. Scalars travel as plain Go
// values (bool, int64, float64, string, []byte, time.Time); the types below
// cover the composite shapes.

// Point2dValue is a stored 2D point.
type Point2dValue struct {
	X, Y float64
}

// Point3dValue is a stored 3D point.
type Point3dValue struct {
	X, Y, Z float64
}

// NavValue is a stored navigation reference. A zero RelClass means the
// relationship class column was NULL and the declared class applies.
type NavValue struct {
	ID       InstanceID
	RelClass ClassID
}

// StructValue holds struct member values keyed by folded member name.
// A missing key and a nil value both mean "unset".
type StructValue map[string]any
