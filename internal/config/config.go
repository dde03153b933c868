// Package config loads the YAML configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pdf-qa-rag/internal/answer"
	"pdf-qa-rag/internal/logger"
	"pdf-qa-rag/internal/processor"
	"pdf-qa-rag/internal/retrieval"
	"pdf-qa-rag/internal/store"
)

// Environment overrides
const (
	EnvPostgresURL = "PDFQA_POSTGRES_URL"
	EnvOllamaHost  = "OLLAMA_HOST"
	EnvLogLevel    = "PDFQA_LOG_LEVEL"
)

// DefaultPath is read when no config file is given
const DefaultPath = "config.yaml"

// StoreConfig selects where the corpus is persisted
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	PostgresURL string `yaml:"postgres_url"`
}

// ExtractorConfig configures text extraction
type ExtractorConfig struct {
	Strategies  []string `yaml:"strategies"`
	MinChars    int      `yaml:"min_chars"`
	MaxFileMB   int      `yaml:"max_file_mb"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// StructureConfig configures cleaning and structuring
type StructureConfig struct {
	Mode      string `yaml:"mode"`
	ChunkSize int    `yaml:"chunk_size"`
	// Dictionary is a YAML correction table; the built-in one is used when empty
	Dictionary string `yaml:"dictionary"`
}

// RetrievalConfig configures the retrieval tiers
type RetrievalConfig struct {
	Vector          string             `yaml:"vector"`
	Lexical         string             `yaml:"lexical"`
	LexicalCutoff   float64            `yaml:"lexical_cutoff"`
	Candidates      int                `yaml:"candidates"`
	SparseThreshold float64            `yaml:"sparse_threshold"`
	DenseThreshold  float64            `yaml:"dense_threshold"`
	Intents         []retrieval.Intent `yaml:"intents,omitempty"`
}

// AnswerConfig configures response composition
type AnswerConfig struct {
	MaxSentences int             `yaml:"max_sentences"`
	Messages     answer.Messages `yaml:"messages"`
}

// OllamaConfig configures the dense embedder
type OllamaConfig struct {
	Host          string `yaml:"host"`
	Model         string `yaml:"model"`
	MaxRetries    int    `yaml:"max_retries"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// ServerConfig configures the HTTP and MCP endpoints
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MCPAddr     string `yaml:"mcp_addr"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// WatcherConfig configures automatic ingestion of the upload directory
type WatcherConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"write_debounce_ms"`
}

// Config is the root application configuration
type Config struct {
	Log       logger.Options  `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Structure StructureConfig `yaml:"structure"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Answer    AnswerConfig    `yaml:"answer"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Server    ServerConfig    `yaml:"server"`
	Watcher   WatcherConfig   `yaml:"watcher"`
}

// Load reads a config file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("unable to open config file: %w", err)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unable to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log:   logger.Options{Level: "info", Format: "json"},
		Store: StoreConfig{Backend: store.BackendFile, Path: "data/corpus.json"},
		Extractor: ExtractorConfig{
			Strategies:  append([]string(nil), processor.DefaultStrategyOrder...),
			MinChars:    processor.DefaultMinChars,
			MaxFileMB:   int(processor.DefaultMaxFileBytes >> 20),
			TimeoutSecs: int(processor.DefaultExtractTimeout / time.Second),
		},
		Structure: StructureConfig{Mode: processor.ModeSections, ChunkSize: processor.DefaultChunkSize},
		Retrieval: RetrievalConfig{
			Vector:          retrieval.VectorSparse,
			Lexical:         retrieval.LexicalAuto,
			LexicalCutoff:   retrieval.DefaultLexicalCutoff,
			Candidates:      retrieval.DefaultCandidates,
			SparseThreshold: retrieval.DefaultSparseThreshold,
			DenseThreshold:  retrieval.DefaultDenseThreshold,
		},
		Answer: AnswerConfig{MaxSentences: answer.DefaultMaxSentences, Messages: answer.DefaultMessages()},
		Ollama: OllamaConfig{Model: "nomic-embed-text", MaxRetries: 3, TimeoutSecs: 30, MaxConcurrent: 3},
		Server: ServerConfig{Addr: ":8080", MCPAddr: ":8081", UploadDir: "uploads", MaxUploadMB: 64},
		Watcher: WatcherConfig{DebounceMs: 500},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPostgresURL); v != "" {
		c.Store.PostgresURL = v
	}
	if v := os.Getenv(EnvOllamaHost); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// applyDefaults fills values a partial file left at zero
func (c *Config) applyDefaults() {
	d := Default()
	if c.Store.Backend == "" {
		c.Store.Backend = d.Store.Backend
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if len(c.Extractor.Strategies) == 0 {
		c.Extractor.Strategies = d.Extractor.Strategies
	}
	if c.Structure.Mode == "" {
		c.Structure.Mode = d.Structure.Mode
	}
	if c.Structure.ChunkSize <= 0 {
		c.Structure.ChunkSize = d.Structure.ChunkSize
	}
	if c.Retrieval.Vector == "" {
		c.Retrieval.Vector = d.Retrieval.Vector
	}
	if c.Retrieval.Lexical == "" {
		c.Retrieval.Lexical = d.Retrieval.Lexical
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = d.Server.UploadDir
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = d.Watcher.DebounceMs
	}
}

// Validate rejects settings no component could run with
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Backend {
	case store.BackendFile, store.BackendPostgres:
	default:
		problems = append(problems, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Backend == store.BackendPostgres && c.Store.PostgresURL == "" {
		problems = append(problems, fmt.Sprintf("postgres backend requires store.postgres_url or %s", EnvPostgresURL))
	}

	switch c.Retrieval.Vector {
	case retrieval.VectorSparse, retrieval.VectorDense, retrieval.VectorNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown vector representation %q", c.Retrieval.Vector))
	}
	if c.Retrieval.Vector == retrieval.VectorDense && c.Ollama.Model == "" {
		problems = append(problems, "dense vectors require ollama.model")
	}

	for name, v := range map[string]float64{
		"retrieval.sparse_threshold": c.Retrieval.SparseThreshold,
		"retrieval.dense_threshold":  c.Retrieval.DenseThreshold,
		"retrieval.lexical_cutoff":   c.Retrieval.LexicalCutoff,
	} {
		// zero means unset to the engine, so a configured gate must be positive
		if v <= 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be within (0, 1], got %v", name, v))
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ExtractorOptions converts the extractor settings
func (c *Config) ExtractorOptions() processor.ExtractorOptions {
	return processor.ExtractorOptions{
		MinChars:     c.Extractor.MinChars,
		MaxFileBytes: int64(c.Extractor.MaxFileMB) << 20,
		Timeout:      time.Duration(c.Extractor.TimeoutSecs) * time.Second,
	}
}

// RetrievalOptions converts the retrieval settings
func (c *Config) RetrievalOptions() retrieval.Options {
	return retrieval.Options{
		Intents:         c.Retrieval.Intents,
		Lexical:         c.Retrieval.Lexical,
		LexicalCutoff:   c.Retrieval.LexicalCutoff,
		Candidates:      c.Retrieval.Candidates,
		SparseThreshold: c.Retrieval.SparseThreshold,
		DenseThreshold:  c.Retrieval.DenseThreshold,
	}
}

// Dictionary loads the configured correction table
func (c *Config) Dictionary() (*processor.Dictionary, error) {
	if c.Structure.Dictionary == "" {
		return processor.DefaultDictionary(), nil
	}
	return processor.LoadDictionary(c.Structure.Dictionary)
}

// Save writes the config to path, creating directories as needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
