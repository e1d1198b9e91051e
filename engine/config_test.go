package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPipelineBundle_OverridesDefaults(t *testing.T) {
	yaml := `
embedding:
  method: statistical
  target_dim: 512
store:
  backend: sqlite
  sqlite_path: /tmp/patterns.db
hnsw:
  m: 32
  ef_construction: 400
  ef_search: 100
adaptive:
  enabled: false
seed: 42
`
	bundle, err := LoadPipelineBundle(writeTempYAML(t, yaml))
	require.NoError(t, err)
	assert.Equal(t, "statistical", bundle.Embedding.Method)
	assert.Equal(t, 512, bundle.Embedding.TargetDim)
	assert.Equal(t, "sqlite", bundle.Store.Backend)
	assert.Equal(t, 32, bundle.HNSW.M)
	assert.False(t, bundle.Adaptive.Enabled)
	assert.Equal(t, int64(42), bundle.Seed)
	// Fields omitted from the override YAML keep their built-in defaults.
	assert.Equal(t, 10, bundle.Pipeline.TopK)
}

func TestLoadPipelineBundle_RejectsUnknownFields(t *testing.T) {
	_, err := LoadPipelineBundle(writeTempYAML(t, "bogus_top_level_key: true\n"))
	assert.Error(t, err)
}

func TestLoadPipelineBundle_MissingFile(t *testing.T) {
	_, err := LoadPipelineBundle(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPipelineBundle_ValidateDefaultsPass(t *testing.T) {
	b := DefaultPipelineBundle()
	assert.NoError(t, b.Validate())
}

func TestPipelineBundle_ValidateRejectsUnknownMethod(t *testing.T) {
	b := DefaultPipelineBundle()
	b.Embedding.Method = "not-a-method"
	assert.Error(t, b.Validate())
}

func TestPipelineBundle_ValidateRejectsSQLiteWithoutPath(t *testing.T) {
	b := DefaultPipelineBundle()
	b.Store.Backend = "sqlite"
	b.Store.SQLitePath = ""
	assert.Error(t, b.Validate())
}

func TestPipelineBundle_ValidateRejectsBadHNSWParams(t *testing.T) {
	b := DefaultPipelineBundle()
	b.HNSW.M = 0
	assert.Error(t, b.Validate())
}

func TestPipelineBundle_ValidateRejectsEpsilonOutOfRange(t *testing.T) {
	b := DefaultPipelineBundle()
	b.Adaptive.EpsilonInit = 1.5
	assert.Error(t, b.Validate())
}
