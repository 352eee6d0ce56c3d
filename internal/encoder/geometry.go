package encoder

import (
	"bytes"
	"errors"
)

// JSONGeometry is the default GeometryCodec: it expects the stored blob to
// already hold the geometry's JSON text and hands it back trimmed.
type JSONGeometry struct{}

// ToJSON implements GeometryCodec.
func (JSONGeometry) ToJSON(blob []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 {
		return nil, errors.New("empty geometry blob")
	}
	return trimmed, nil
}
