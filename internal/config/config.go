// Package config provides configuration loading and structs for the frontpage pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. It is loaded once and
// passed into components at construction; nothing reads it as ambient state.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Paths     PathsConfig     `yaml:"paths"`
	Sections  []SectionConfig `yaml:"sections"`
	Site      SiteConfig      `yaml:"site"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Server    ServerConfig    `yaml:"server"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// PathsConfig holds the on-disk layout of the pipeline state.
type PathsConfig struct {
	DownloadsDir   string `yaml:"downloads_dir"`
	CleanDir       string `yaml:"clean_dir"`
	IndicesDir     string `yaml:"indices_dir"`
	AnnotationsDir string `yaml:"annotations_dir"`
	RowStorePath   string `yaml:"row_store_path"`
	ModelPath      string `yaml:"model_path"`
	SiteDir        string `yaml:"site_dir"`
}

// SectionConfig describes one curated output section.
type SectionConfig struct {
	Label     string  `yaml:"label"`
	Title     string  `yaml:"title"`
	Threshold float64 `yaml:"threshold"`
}

// SiteConfig holds site build policy.
type SiteConfig struct {
	// Quota caps how many records each section may accept in one build.
	Quota int `yaml:"quota"`
	// MaxCandidates caps how many clean records are scored per build.
	MaxCandidates int `yaml:"max_candidates"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	Dimensions    int    `yaml:"dimensions"`
	MaxTokens     int    `yaml:"max_tokens"`
	CacheSize     int    `yaml:"cache_size"`
	// UseMock swaps in the deterministic hash embedder; useful for builds
	// without the onnxruntime library.
	UseMock bool `yaml:"use_mock"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// IngestConfig holds arXiv download settings.
type IngestConfig struct {
	MaxResults     int     `yaml:"max_results"`
	MaxAgeDays     float64 `yaml:"max_age_days"`
	CategoryPrefix string  `yaml:"category_prefix"`
}

// Labels returns the configured section labels in configuration order.
func (c *Config) Labels() []string {
	labels := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		labels[i] = s.Label
	}
	return labels
}

// Thresholds returns the per-label confidence thresholds.
func (c *Config) Thresholds() map[string]float64 {
	out := make(map[string]float64, len(c.Sections))
	for _, s := range c.Sections {
		out[s.Label] = s.Threshold
	}
	return out
}

// Load reads and parses the config file at path, expands relative paths
// against the config directory, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Paths.DownloadsDir = expandPath(cfg.Paths.DownloadsDir, configDir)
	cfg.Paths.CleanDir = expandPath(cfg.Paths.CleanDir, configDir)
	cfg.Paths.IndicesDir = expandPath(cfg.Paths.IndicesDir, configDir)
	cfg.Paths.AnnotationsDir = expandPath(cfg.Paths.AnnotationsDir, configDir)
	cfg.Paths.RowStorePath = expandPath(cfg.Paths.RowStorePath, configDir)
	cfg.Paths.ModelPath = expandPath(cfg.Paths.ModelPath, configDir)
	cfg.Paths.SiteDir = expandPath(cfg.Paths.SiteDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, configDir)

	return &cfg, nil
}

// expandPath converts path to absolute, resolving relative paths against configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}
