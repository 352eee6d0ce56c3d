package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// LineSegment encodes the stub geometry blob for a line from a to b.
// StubGeometry decodes it again.
func LineSegment(a, b [3]float64) []byte {
	return []byte(fmt.Sprintf("LINE %g %g %g %g %g %g", a[0], a[1], a[2], b[0], b[1], b[2]))
}

// StubGeometry is a GeometryCodec for blobs written by LineSegment.
type StubGeometry struct{}

// ToJSON renders {"lineSegment":[[x,y,z],[x,y,z]]}.
func (StubGeometry) ToJSON(blob []byte) ([]byte, error) {
	fields := strings.Fields(string(blob))
	if len(fields) != 7 || fields[0] != "LINE" {
		return nil, errors.New("not a stub line segment")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"lineSegment":[[`)
	buf.WriteString(strings.Join(fields[1:4], ","))
	buf.WriteString(`],[`)
	buf.WriteString(strings.Join(fields[4:7], ","))
	buf.WriteString(`]]}`)
	return buf.Bytes(), nil
}
