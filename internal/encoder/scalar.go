package encoder

import (
	"fmt"
	"time"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/model"
)

// Scalar converts raw into the value handed back through the SQL function
// boundary. Primitives that have a native SQL representation come back as
// Go natives (int64, float64, string, []byte, bool); timestamps come back as
// their ISO text. Points, geometry, navigation, structs and arrays come
// back as JSON text. Unset values are nil.
func (e *Encoder) Scalar(p *model.PropertyDescriptor, raw any) (any, error) {
	if p.Kind == model.KindPrimitive && raw != nil {
		switch p.Primitive {
		case model.Boolean, model.Integer32, model.Integer64, model.Double, model.String, model.Binary:
			return e.nativeScalar(p, raw)
		case model.DateTime:
			t, ok := raw.(time.Time)
			if !ok {
				return nil, model.NewMalformedPropertyError(p.Name, "stored %T does not fit %s", raw, p.Primitive)
			}
			return FormatDateTime(t, p.DateTimeKind), nil
		}
	}

	v, err := e.Encode(p, raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return doc.MarshalString(v)
}

func (e *Encoder) nativeScalar(p *model.PropertyDescriptor, raw any) (any, error) {
	v, err := e.encodePrimitive(p, raw)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case doc.Bool:
		return bool(val), nil
	case doc.Int:
		return int64(val), nil
	case doc.Long:
		return int64(val), nil
	case doc.Double:
		return float64(val), nil
	case doc.String:
		if p.Primitive == model.Binary {
			return toBytes(raw), nil
		}
		return string(val), nil
	default:
		return nil, fmt.Errorf("unexpected scalar %T for %s", v, p.Name)
	}
}

func toBytes(raw any) []byte {
	switch v := raw.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}
