package instance

import (
	"context"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/doc"
	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/testutil"
)

func TestSeekMissingNeverCallsBack(t *testing.T) {
	f := newFixture(t)

	called := false
	found, err := f.reader.Seek(context.Background(), Position{InstanceID: 0x77, ClassID: testutil.PClass}, func(RowContext) {
		called = true
	})
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, called)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.reader.Metrics().Seeks.WithLabelValues("missing")))
}

func TestSeekFound(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.SubClass, 0x10, map[string]any{"Prop1": "a", "SubProp1": "b"})

	calls := 0
	found, err := f.reader.Seek(context.Background(), Position{InstanceID: 0x10, ClassID: testutil.SubClass}, func(rc RowContext) {
		calls++
		assert.Equal(t, model.InstanceID(0x10), rc.InstanceID())
		assert.Equal(t, testutil.SubClass, rc.ClassID())

		js, err := rc.JSON()
		require.NoError(t, err)
		assert.Equal(t, `{"ECInstanceId":"0x10","ECClassId":"TestSchema.Sub","Prop1":"a","SubProp1":"b"}`, js)

		v, err := rc.Property("subprop1")
		require.NoError(t, err)
		assert.Equal(t, doc.String("b"), v)

		v, err = rc.Property("Prop2")
		require.NoError(t, err)
		assert.Equal(t, doc.Null{}, v)

		_, err = rc.Property("nope")
		assert.True(t, model.IsPropertyNotFound(err))
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.reader.Metrics().Seeks.WithLabelValues("found")))
}

func TestSeekRowContextReleased(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 1, map[string]any{"s": "x"})

	var kept RowContext
	found, err := f.reader.Seek(context.Background(), Position{InstanceID: 1, ClassID: testutil.PClass}, func(rc RowContext) {
		kept = rc
	})
	require.NoError(t, err)
	require.True(t, found)

	_, err = kept.Document()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = kept.JSON()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = kept.Property("s")
	assert.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, model.InstanceID(1), kept.InstanceID())
}

func TestSeekUnknownClass(t *testing.T) {
	f := newFixture(t)

	found, err := f.reader.Seek(context.Background(), Position{InstanceID: 1, ClassID: 0x999}, func(RowContext) {
		t.Fatal("callback must not run")
	})
	assert.False(t, found)
	assert.True(t, model.IsUnknownClass(err))
}

func TestSeekDocumentBuiltOnce(t *testing.T) {
	f := newFixture(t)
	f.insert(t, testutil.PClass, 1, map[string]any{"s": "x"})

	_, err := f.reader.Seek(context.Background(), Position{InstanceID: 1, ClassID: testutil.PClass}, func(rc RowContext) {
		_, err := rc.Document()
		require.NoError(t, err)
		_, err = rc.JSON()
		require.NoError(t, err)
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.reader.Metrics().Materializations))
}
