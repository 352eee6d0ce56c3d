package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ecreader/internal/compiler"
	"github.com/roach88/ecreader/internal/model"
	"github.com/roach88/ecreader/internal/store"
	"github.com/roach88/ecreader/internal/testutil"
)

const (
	testModel     = "../harness/testdata/models/testschema.cue"
	testScenarios = "../harness/testdata/scenarios"
)

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{TraceIDs: testutil.NewFixedTraceIDs("")})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedDB creates a database with the test model applied and one P instance
// (0x1) in it, and returns its path.
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	_, err := execute(t, "init", "--db", path, "--model", testModel)
	require.NoError(t, err)

	cat, err := compiler.LoadCatalog(testModel)
	require.NoError(t, err)
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	err = st.InsertInstance(context.Background(), cat, testutil.PClass, 1, map[string]any{
		"s":   "Hello, World",
		"i":   int64(13362),
		"p2d": model.Point2dValue{X: 2, Y: 4},
	})
	require.NoError(t, err)
	return path
}
