package instance

import (
	"fmt"

	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/rowsql"
	"github.com/roach88/ecreader/internal/store"
)

// Catalog is the class catalog surface a Reader needs.
type Catalog interface {
	Resolve(id model.ClassID) (*model.ClassLayout, error)
	QualifiedName(id model.ClassID) (string, error)
	FindProperty(id model.ClassID, name string) (*model.PropertyDescriptor, bool, error)
	EffectiveProperties(id model.ClassID) ([]model.PropertyDescriptor, error)
}

// Step is one property of a plan: its descriptor, the codec that rebuilds
// its raw value and where its columns start in the row.
type Step struct {
	Property model.PropertyDescriptor

	codec  *store.PropertyCodec
	offset int
	width  int
}

// Plan is the immutable extraction plan of one class.
type Plan struct {
	ClassID       model.ClassID
	QualifiedName string

	// Steps are in document order: base-class properties first, shadowed
	// properties at their base position.
	Steps []Step

	index map[string]int
	query rowsql.Query
}

// Step looks up a property by name, case-insensitively.
func (p *Plan) Step(name string) (*Step, bool) {
	i, ok := p.index[model.FoldName(name)]
	if !ok {
		return nil, false
	}
	return &p.Steps[i], true
}

// SQL returns the compiled row query.
func (p *Plan) SQL() string {
	return p.query.SQL
}

// buildPlan walks the class's effective properties once and compiles the
// single row read that serves every step.
func buildPlan(cat Catalog, id model.ClassID) (*Plan, error) {
	l, err := cat.Resolve(id)
	if err != nil {
		return nil, err
	}
	if !l.IsEntity() || l.Table == "" {
		return nil, &model.Error{
			Code:    model.ErrCodeUnknownClass,
			Message: fmt.Sprintf("%s class %s has no instances", l.Type, l.QualifiedName()),
			ClassID: id,
		}
	}
	props, err := cat.EffectiveProperties(id)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		ClassID:       id,
		QualifiedName: l.QualifiedName(),
		Steps:         make([]Step, 0, len(props)),
		index:         make(map[string]int, len(props)),
	}
	read := rowsql.RowRead{Primary: l.Table, ClassIDColumn: l.ClassIDColumn}

	// Column 0 of every row is the Id.
	offset := 1
	for _, p := range props {
		codec, err := store.CompileProperty(cat, p, l.Table)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", plan.QualifiedName, err)
		}
		slots := codec.Slots()
		for _, s := range slots {
			read.Columns = append(read.Columns, rowsql.Column{Table: s.Table, Name: s.Column})
		}
		plan.index[model.FoldName(p.Name)] = len(plan.Steps)
		plan.Steps = append(plan.Steps, Step{
			Property: p,
			codec:    codec,
			offset:   offset,
			width:    len(slots),
		})
		offset += len(slots)
	}

	q, err := rowsql.Compile(read)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", plan.QualifiedName, err)
	}
	plan.query = q
	return plan, nil
}

// decode rebuilds the step's raw value from a full row.
func (s *Step) decode(row []any) (any, error) {
	return s.codec.Decode(row[s.offset : s.offset+s.width])
}
