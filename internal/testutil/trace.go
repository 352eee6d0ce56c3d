package testutil

// FixedTraceIDs returns the same trace id every time, so CLI output can be
// compared byte for byte.
//
// Thread-safety: FixedTraceIDs is stateless and safe for concurrent use.
type FixedTraceIDs struct {
	id string
}

// NewFixedTraceIDs creates a generator. An empty id becomes "test-trace".
func NewFixedTraceIDs(id string) *FixedTraceIDs {
	if id == "" {
		id = "test-trace"
	}
	return &FixedTraceIDs{id: id}
}

// Generate returns the fixed id.
func (g *FixedTraceIDs) Generate() string {
	return g.id
}
