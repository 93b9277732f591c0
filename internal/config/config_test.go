package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Vector.TopK)
	assert.Equal(t, "./data", cfg.Paths.DataDir)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[llm]
provider = "openai"
model = "gpt-4o-mini"

[neo4j]
uri = "bolt://graph:7687"

[paths]
data_dir = "/srv/docs"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "/srv/docs", cfg.Paths.DataDir)
	// Untouched sections keep their defaults.
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[neo4j]\nuri = \"bolt://file:7687\"\n"), 0o644))

	t.Setenv("NEO4J_URI", "bolt://env:7687")
	t.Setenv("DATA_DIR", "/env/data")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bolt://env:7687", cfg.Neo4j.URI)
	assert.Equal(t, "/env/data", cfg.Paths.DataDir)
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}
