package harness

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/compiler"
	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/instance"
	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/store"
	"github.com/roach88/ecreader/internal/testutil"
)

// Harness is the test execution engine.
type Harness struct {
	cat    *catalog.Catalog
	store  *store.Store
	reader *instance.Reader
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the model and build its catalog
// 2. Create fresh in-memory database and apply the model
// 3. Insert rows
// 4. Execute flow steps and evaluate expect clauses
func Run(scenario *Scenario) (*Result, error) {
	cat, err := compiler.LoadCatalog(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.ApplyModel(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to apply model: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		cat:   cat,
		store: st,
		reader: instance.NewReader(cat, st,
			instance.WithOptions(optionsFrom(scenario.Options)),
			instance.WithGeometryCodec(testutil.StubGeometry{}),
			instance.WithLogger(logger)),
		logger: logger,
	}

	if err := h.insertRows(ctx, scenario.Rows); err != nil {
		return nil, fmt.Errorf("failed to insert rows: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		res, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, res)
		for _, msg := range EvaluateExpect(step, res) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
	return result, nil
}

func optionsFrom(cfg *OptionsSpec) instance.Options {
	var opts instance.Options
	if cfg == nil {
		return opts
	}
	if cfg.NullArrays == "omit" {
		opts.NullArrays = instance.OmitNullArray
	}
	if cfg.NullStructs == "omit" {
		opts.NullStructs = instance.OmitNullStruct
	}
	return opts
}

// resolveClass accepts a class name or a numeric id.
func (h *Harness) resolveClass(ref string) (model.ClassID, error) {
	if id, err := model.ParseID(ref); err == nil {
		return model.ClassID(id), nil
	}
	return h.cat.LookupClass(ref)
}

// insertRows writes the scenario rows. Rows without an id get the next id
// after the largest one seen so far.
func (h *Harness) insertRows(ctx context.Context, rows []RowSpec) error {
	seq := testutil.NewIDSequence()
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		id, err := model.ParseID(row.ID)
		if err != nil {
			return fmt.Errorf("rows: %w", err)
		}
		seq.Observe(model.InstanceID(id))
	}

	for i, row := range rows {
		classID, err := h.resolveClass(row.Class)
		if err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
		var instanceID model.InstanceID
		if row.ID == "" {
			instanceID = seq.Next()
		} else {
			id, _ := model.ParseID(row.ID)
			instanceID = model.InstanceID(id)
		}
		if err := h.store.InsertInstance(ctx, h.cat, classID, instanceID, row.Values); err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
		h.logger.Info("row inserted", "class", row.Class, "id", instanceID.Hex())
	}
	return nil
}

// executeStep runs one step. Reader errors become part of the step result;
// only malformed steps are returned as errors.
func (h *Harness) executeStep(ctx context.Context, index int, step FlowStep) (StepResult, error) {
	res := StepResult{Index: index, Op: step.Op, Class: step.Class, Property: step.Property}

	var instanceID model.InstanceID
	if step.ID != "" {
		id, err := model.ParseID(step.ID)
		if err != nil {
			return res, err
		}
		instanceID = model.InstanceID(id)
		res.ID = instanceID.Hex()
	}
	classID, err := h.resolveClass(step.Class)
	if err != nil {
		res.ErrorCode = errorCode(err)
		return res, nil
	}

	var out string
	switch step.Op {
	case OpMaterialize:
		out, err = h.reader.MaterializeJSON(ctx, classID, instanceID)
	case OpExtract:
		var v doc.Value
		if v, err = h.reader.ExtractProperty(ctx, classID, instanceID, step.Property); err == nil {
			out, err = doc.MarshalString(v)
		}
	case OpScalar:
		var v any
		if v, err = h.reader.ExtractScalar(ctx, classID, instanceID, step.Property); err == nil {
			out = formatScalar(v)
		}
	case OpExists:
		var ok bool
		if ok, err = h.reader.PropExists(classID, step.Property); err == nil {
			out = strconv.FormatBool(ok)
		}
	case OpSeek:
		out = "not found"
		var docErr error
		_, err = h.reader.Seek(ctx, instance.Position{InstanceID: instanceID, ClassID: classID}, func(rc instance.RowContext) {
			out, docErr = rc.JSON()
		})
		if err == nil {
			err = docErr
		}
	default:
		return res, fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		res.ErrorCode = errorCode(err)
		return res, nil
	}
	res.Output = out
	return res, nil
}

func errorCode(err error) string {
	var me *model.Error
	if errors.As(err, &me) {
		return string(me.Code)
	}
	return err.Error()
}

// formatScalar renders a scalar-channel value with its type, since the
// channel's point is native typing.
func formatScalar(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return "text " + strconv.Quote(s)
	case []byte:
		return "blob " + hex.EncodeToString(s)
	case int64:
		return "integer " + strconv.FormatInt(s, 10)
	case float64:
		return "real " + strconv.FormatFloat(s, 'g', -1, 64)
	case bool:
		return "boolean " + strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%T %v", v, v)
	}
}
