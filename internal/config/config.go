// Package config provides configuration loading and structs for the interleave tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Translate TranslateConfig `yaml:"translate"`
	Books     BooksConfig     `yaml:"books"`
	Align     AlignConfig     `yaml:"align"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the path of the cache database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// TranslateConfig selects the machine translation backend.
type TranslateConfig struct {
	// Kind is "identity" (no translation) or "libretranslate".
	Kind           string `yaml:"kind"`
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BooksConfig points at the two editions and how their chapters line up.
type BooksConfig struct {
	SourceDir       string `yaml:"source_dir"`
	DestinationDir  string `yaml:"destination_dir"`
	SourceLang      string `yaml:"source_lang"`
	DestinationLang string `yaml:"destination_lang"`
	FirstChapter    int    `yaml:"first_chapter"`
	ChapterDelta    int    `yaml:"chapter_delta"`
}

// AlignConfig holds the tuning knobs of the aligner and the fix-up session.
type AlignConfig struct {
	WindowSize             int                                  `yaml:"window_size"`
	MinSentenceTokens      int                                  `yaml:"min_sentence_tokens"`
	ConsensusThreshold     float64                              `yaml:"consensus_threshold"`
	PreserveFixedOnRealign bool                                 `yaml:"preserve_fixed_on_realign"`
	Mode                   string                               `yaml:"mode"`
	ViewWindow             int                                  `yaml:"view_window"`
	Variants               models.Pair[models.SentenceVariant] `yaml:"variants"`
}

// WatchConfig holds book directory watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Fix-up granularity modes.
const (
	ModeParagraph = "paragraph"
	ModeSentence  = "sentence"
)

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed, or fails validation.
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
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Books.SourceDir != "" {
		cfg.Books.SourceDir = expandPath(cfg.Books.SourceDir, configDir)
	}
	if cfg.Books.DestinationDir != "" {
		cfg.Books.DestinationDir = expandPath(cfg.Books.DestinationDir, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings the aligner cannot work with.
func (c *Config) Validate() error {
	a := c.Align
	if a.WindowSize < 1 {
		return apperrors.NewInput("align.window_size", "must be at least 1, got %d", a.WindowSize)
	}
	if a.MinSentenceTokens < 0 {
		return apperrors.NewInput("align.min_sentence_tokens", "must not be negative, got %d", a.MinSentenceTokens)
	}
	if a.ConsensusThreshold <= 0 || a.ConsensusThreshold > 1 {
		return apperrors.NewInput("align.consensus_threshold", "must be in (0, 1], got %g", a.ConsensusThreshold)
	}
	if a.Mode != ModeParagraph && a.Mode != ModeSentence {
		return apperrors.NewInput("align.mode", "unknown mode %q (supported: paragraph, sentence)", a.Mode)
	}
	for _, v := range []models.SentenceVariant{a.Variants.Src, a.Variants.Dst} {
		if _, err := models.ParseSentenceVariant(string(v)); err != nil {
			return apperrors.NewInput("align.variants", "%v", err)
		}
	}
	switch c.Translate.Kind {
	case "identity", "libretranslate":
	default:
		return apperrors.NewInput("translate.kind", "unknown translator %q (supported: identity, libretranslate)", c.Translate.Kind)
	}
	if c.Translate.Kind == "libretranslate" && c.Translate.URL == "" {
		return apperrors.NewInput("translate.url", "required for libretranslate")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
