package generation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	artifacts := []Artifact{
		{Path: "fn_table.h", Content: []byte("a\nb\n")},
		{Path: "api.json", Content: []byte("{}\n")},
		{Path: "server_gen.cpp", Content: []byte("x\n")},
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fn_table.h"), []byte("a\nb\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api.json"), []byte("{\"stale\": true}\n"), 0o644))

	drifts, err := Compare(dir, artifacts)
	require.NoError(t, err)
	require.Len(t, drifts, 2)

	assert.Equal(t, "api.json", drifts[0].Path)
	assert.False(t, drifts[0].Missing)
	assert.Contains(t, drifts[0].Diff, "stale")

	assert.Equal(t, "server_gen.cpp", drifts[1].Path)
	assert.True(t, drifts[1].Missing)

	require.NoError(t, Write(dir, artifacts))
	drifts, err = Compare(dir, artifacts)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
