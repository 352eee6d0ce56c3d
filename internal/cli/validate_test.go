package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, "validate", testModel)
	require.NoError(t, err)
	assert.Contains(t, out, "Model valid: 11 class(es)")

	out, err = execute(t, "validate", "--format", "json", testModel)
	require.NoError(t, err)
	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 11, resp.Data.Classes)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "cue syntax",
			content: "schemas: {",
			want:    "Error [E001]",
		},
		{
			name: "unknown primitive",
			content: `schemas: S: classes: A: {
	id: 1
	properties: [{name: "x", type: "decimal"}]
}`,
			want: `unknown primitive type "decimal"`,
		},
		{
			name: "inheritance cycle",
			content: `schemas: S: classes: {
	A: {id: 1, bases: ["B"], table: "a"}
	B: {id: 2, bases: ["A"], table: "b"}
}`,
			want: "inheritance cycle:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", writeModel(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}
