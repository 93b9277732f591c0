package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type VectorConfig struct {
	// BaseURL of the external vector-search service. Empty means no
	// vector index is available and vector queries degrade.
	BaseURL string `toml:"base_url"`
	TopK    int    `toml:"top_k"`
}

type PathsConfig struct {
	DataDir       string `toml:"data_dir"`
	SnapshotDir   string `toml:"snapshot_dir"`
	FeedbackDir   string `toml:"feedback_dir"`
	Visualization string `toml:"visualization"`
}

type Config struct {
	LLM    LLMConfig    `toml:"llm"`
	Neo4j  Neo4jConfig  `toml:"neo4j"`
	Vector VectorConfig `toml:"vector"`
	Paths  PathsConfig  `toml:"paths"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-pro",
		},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Password: "password",
		},
		Vector: VectorConfig{
			TopK: 5,
		},
		Paths: PathsConfig{
			DataDir:       "./data",
			FeedbackDir:   "feedback",
			Visualization: filepath.Join("visualizations", "knowledge_graph.png"),
		},
	}
}

// Load reads the TOML file at path over the defaults and then applies
// environment overrides. A missing file is not an error; environment
// variables alone can configure everything.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setenv(&c.LLM.Provider, "LLM_PROVIDER")
	setenv(&c.LLM.Model, "LLM_MODEL")
	setenv(&c.LLM.APIKey, "LLM_API_KEY")
	setenv(&c.LLM.BaseURL, "LLM_BASE_URL")
	if c.LLM.APIKey == "" && c.LLM.Provider == "gemini" {
		setenv(&c.LLM.APIKey, "GEMINI_API_KEY")
	}

	setenv(&c.Neo4j.URI, "NEO4J_URI")
	setenv(&c.Neo4j.User, "NEO4J_USER")
	setenv(&c.Neo4j.Password, "NEO4J_PASSWORD")

	setenv(&c.Vector.BaseURL, "VECTOR_BASE_URL")

	setenv(&c.Paths.DataDir, "DATA_DIR")
	setenv(&c.Paths.SnapshotDir, "SNAPSHOT_DIR")
	setenv(&c.Paths.FeedbackDir, "FEEDBACK_DIR")
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
