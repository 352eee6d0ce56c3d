package instance

import (
	"context"
	"log/slog"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/encoder"
	"github.com/roach88/ecreader/internal/model"
)

// RowSource runs a compiled single-row query. *store.Store implements it.
type RowSource interface {
	ReadRow(ctx context.Context, query string, args []any, dest []any) (bool, error)
}

// Reader resolves properties and materializes instances.
type Reader struct {
	cat      Catalog
	rows     RowSource
	enc      *encoder.Encoder
	plans    *PlanCache
	metrics  *Metrics
	opts     Options
	geometry encoder.GeometryCodec
	logger   *slog.Logger
}

// NewReader creates a Reader over cat and rows.
func NewReader(cat Catalog, rows RowSource, opts ...ReaderOption) *Reader {
	r := &Reader{
		cat:      cat,
		rows:     rows,
		geometry: encoder.JSONGeometry{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.enc = encoder.New(cat, encoder.WithPolicy(r.opts), encoder.WithGeometryCodec(r.geometry))
	r.metrics = newMetrics()
	r.plans = newPlanCache(cat, r.metrics, r.logger)
	return r
}

// Metrics returns the Reader's counters.
func (r *Reader) Metrics() *Metrics {
	return r.metrics
}

// Plans returns the Reader's plan cache.
func (r *Reader) Plans() *PlanCache {
	return r.plans
}

// Options returns the null-handling options in effect.
func (r *Reader) Options() Options {
	return r.opts
}

func isPseudo(name string) bool {
	return model.SameName(name, model.InstanceIDProperty) || model.SameName(name, model.ClassIDProperty)
}

// PropExists reports whether name is a property of classID, declared on
// the class or any ancestor, compared case-insensitively. ECInstanceId and
// ECClassId exist on every class.
func (r *Reader) PropExists(classID model.ClassID, name string) (bool, error) {
	if isPseudo(name) {
		if _, err := r.cat.Resolve(classID); err != nil {
			return false, err
		}
		return true, nil
	}
	_, ok, err := r.cat.FindProperty(classID, name)
	return ok, err
}

// readRow reads the plan's row for instanceID. The returned slice holds
// one raw column value per selected column, Id first.
func (r *Reader) readRow(ctx context.Context, plan *Plan, instanceID model.InstanceID) ([]any, error) {
	row := make([]any, plan.query.Width)
	dest := make([]any, len(row))
	for i := range row {
		dest[i] = &row[i]
	}
	found, err := r.rows.ReadRow(ctx, plan.query.SQL, plan.query.Args(plan.ClassID, instanceID), dest)
	if err != nil {
		r.logger.Warn("row read failed",
			"class", plan.QualifiedName,
			"instance", instanceID.Hex(),
			"error", err)
		return nil, err
	}
	if !found {
		return nil, model.NewInstanceNotFoundError(plan.ClassID, instanceID)
	}
	return row, nil
}

// lookup resolves name against the plan before any row is read so a missing
// property is reported as such even for a missing instance.
func (r *Reader) lookup(plan *Plan, name string) (*Step, error) {
	step, ok := plan.Step(name)
	if !ok {
		return nil, model.NewPropertyNotFoundError(plan.ClassID, name)
	}
	return step, nil
}

// ExtractProperty returns one property of an instance as a document value.
// An unset value is doc.Null. A struct whose members are all unset comes
// back as an empty doc.Object under the default policy; with
// Options.NullStructs set to OmitNullStruct it is doc.Null. NULL arrays
// follow Options.NullArrays the same way.
func (r *Reader) ExtractProperty(ctx context.Context, classID model.ClassID, instanceID model.InstanceID, name string) (doc.Value, error) {
	plan, err := r.plans.GetOrBuild(classID)
	if err != nil {
		return nil, err
	}
	var step *Step
	if !isPseudo(name) {
		if step, err = r.lookup(plan, name); err != nil {
			return nil, err
		}
	}
	row, err := r.readRow(ctx, plan, instanceID)
	if err != nil {
		return nil, err
	}
	return r.extract(plan, row, instanceID, step, name)
}

func (r *Reader) extract(plan *Plan, row []any, instanceID model.InstanceID, step *Step, name string) (doc.Value, error) {
	if step == nil {
		if model.SameName(name, model.InstanceIDProperty) {
			return r.enc.InstanceID(instanceID), nil
		}
		return r.enc.ClassID(plan.ClassID)
	}
	v, err := r.encodeStep(step, row)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return doc.Null{}, nil
	}
	return v, nil
}

func (r *Reader) encodeStep(step *Step, row []any) (doc.Value, error) {
	raw, err := step.decode(row)
	if err != nil {
		return nil, err
	}
	return r.enc.Encode(&step.Property, raw)
}

// ExtractScalar returns one property through the scalar channel used by
// SQL functions: natives for primitives, JSON text for composite values,
// nil for unset. ECInstanceId and ECClassId come back as int64 ids.
func (r *Reader) ExtractScalar(ctx context.Context, classID model.ClassID, instanceID model.InstanceID, name string) (any, error) {
	plan, err := r.plans.GetOrBuild(classID)
	if err != nil {
		return nil, err
	}
	var step *Step
	if !isPseudo(name) {
		if step, err = r.lookup(plan, name); err != nil {
			return nil, err
		}
	}
	row, err := r.readRow(ctx, plan, instanceID)
	if err != nil {
		return nil, err
	}
	switch {
	case step != nil:
		raw, err := step.decode(row)
		if err != nil {
			return nil, err
		}
		return r.enc.Scalar(&step.Property, raw)
	case model.SameName(name, model.InstanceIDProperty):
		return int64(instanceID), nil
	default:
		return int64(plan.ClassID), nil
	}
}

// MaterializeInstance returns the whole instance as a document:
// ECInstanceId, ECClassId, then every set property in plan order.
func (r *Reader) MaterializeInstance(ctx context.Context, classID model.ClassID, instanceID model.InstanceID) (doc.Object, error) {
	plan, err := r.plans.GetOrBuild(classID)
	if err != nil {
		return nil, err
	}
	row, err := r.readRow(ctx, plan, instanceID)
	if err != nil {
		return nil, err
	}
	return r.materialize(plan, row, instanceID)
}

func (r *Reader) materialize(plan *Plan, row []any, instanceID model.InstanceID) (doc.Object, error) {
	classValue, err := r.enc.ClassID(plan.ClassID)
	if err != nil {
		return nil, err
	}
	obj := make(doc.Object, 0, len(plan.Steps)+2)
	obj = append(obj,
		doc.M(model.InstanceIDProperty, r.enc.InstanceID(instanceID)),
		doc.M(model.ClassIDProperty, classValue))

	for i := range plan.Steps {
		step := &plan.Steps[i]
		v, err := r.encodeStep(step, row)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		obj = append(obj, doc.M(step.Property.Name, v))
	}
	r.metrics.Materializations.Inc()
	return obj, nil
}

// MaterializeJSON is MaterializeInstance rendered as JSON text.
func (r *Reader) MaterializeJSON(ctx context.Context, classID model.ClassID, instanceID model.InstanceID) (string, error) {
	obj, err := r.MaterializeInstance(ctx, classID, instanceID)
	if err != nil {
		return "", err
	}
	return doc.MarshalString(obj)
}
