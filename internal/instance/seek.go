package instance

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/model"
)

// ErrReleased is returned by RowContext accessors once the Seek callback
// has returned.
var ErrReleased = errors.New("row context used after its seek callback returned")

// Position identifies one instance.
type Position struct {
	InstanceID model.InstanceID
	ClassID    model.ClassID
}

// RowContext is a borrowed view of one located row. It is valid only for
// the duration of the Seek callback it is passed to.
type RowContext interface {
	InstanceID() model.InstanceID
	ClassID() model.ClassID

	// Document materializes the instance. Built on first call.
	Document() (doc.Object, error)

	// JSON renders Document.
	JSON() (string, error)

	// Property extracts one property; unset values are doc.Null.
	Property(name string) (doc.Value, error)
}

// Seek locates pos and, if the row exists, calls fn exactly once before
// returning. It returns false with a nil error when no such instance
// exists. The RowContext must not be used after fn returns.
func (r *Reader) Seek(ctx context.Context, pos Position, fn func(RowContext)) (bool, error) {
	plan, err := r.plans.GetOrBuild(pos.ClassID)
	if err != nil {
		return false, err
	}
	row, err := r.readRow(ctx, plan, pos.InstanceID)
	if model.IsInstanceNotFound(err) {
		r.metrics.Seeks.WithLabelValues("missing").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	r.metrics.Seeks.WithLabelValues("found").Inc()

	rc := &rowContext{reader: r, plan: plan, row: row, pos: pos}
	defer rc.release()
	fn(rc)
	return true, nil
}

type rowContext struct {
	reader   *Reader
	plan     *Plan
	row      []any
	pos      Position
	released atomic.Bool

	document doc.Object
	docErr   error
	built    bool
}

func (c *rowContext) release() {
	c.released.Store(true)
	c.row = nil
	c.document = nil
}

func (c *rowContext) InstanceID() model.InstanceID { return c.pos.InstanceID }
func (c *rowContext) ClassID() model.ClassID       { return c.pos.ClassID }

func (c *rowContext) Document() (doc.Object, error) {
	if c.released.Load() {
		return nil, ErrReleased
	}
	if !c.built {
		c.document, c.docErr = c.reader.materialize(c.plan, c.row, c.pos.InstanceID)
		c.built = true
	}
	return c.document, c.docErr
}

func (c *rowContext) JSON() (string, error) {
	obj, err := c.Document()
	if err != nil {
		return "", err
	}
	return doc.MarshalString(obj)
}

func (c *rowContext) Property(name string) (doc.Value, error) {
	if c.released.Load() {
		return nil, ErrReleased
	}
	var step *Step
	if !isPseudo(name) {
		var err error
		if step, err = c.reader.lookup(c.plan, name); err != nil {
			return nil, err
		}
	}
	return c.reader.extract(c.plan, c.row, c.pos.InstanceID, step, name)
}
