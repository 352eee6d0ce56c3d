package doc

// Value is a sealed interface representing document values.
// Only the types in this file implement it.
type Value interface {
	docValue() // Sealed
}

// Null represents a JSON null.
type Null struct{}

func (Null) docValue() {}

// Bool represents true/false.
type Bool bool

func (Bool) docValue() {}

// Int is a 32-bit-range integer rendered as plain digits.
type Int int64

func (Int) docValue() {}

// Long is a 64-bit integer rendered as digits plus ".0", marking it as
// coming from an Integer64 property.
type Long int64

func (Long) docValue() {}

// Double is a floating point number.
type Double float64

func (Double) docValue() {}

// String is a JSON string.
type String string

func (String) docValue() {}

// Raw is a pre-rendered, already validated JSON fragment spliced verbatim.
type Raw []byte

func (Raw) docValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) docValue() {}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is an ordered list of members. Insertion order is rendering order.
type Object []Member

func (Object) docValue() {}

// M is a shorthand for Member for ergonomic construction.
// Example: Object{M("Id", String("0x1")), M("Count", Int(5))}
func M(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

// Get returns the value stored under key (exact match).
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) { return Marshal(o) }

// MarshalJSON implements json.Marshaler.
func (a Array) MarshalJSON() ([]byte, error) { return Marshal(a) }
