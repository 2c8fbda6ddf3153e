package config

import "github.com/hyperjump/interleave/internal/models"

// Default alignment parameters, as observed in practice. They are not known to be optimal.
const (
	DefaultWindowSize         = 20
	DefaultMinSentenceTokens  = 4
	DefaultConsensusThreshold = 0.6
	DefaultViewWindow         = 10
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/interleave/cache.db"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/interleave/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Translate.Kind == "" {
		cfg.Translate.Kind = "identity"
	}
	if cfg.Translate.TimeoutSeconds == 0 {
		cfg.Translate.TimeoutSeconds = 30
	}
	if cfg.Books.SourceLang == "" {
		cfg.Books.SourceLang = "fr"
	}
	if cfg.Books.DestinationLang == "" {
		cfg.Books.DestinationLang = "en"
	}
	if cfg.Align.WindowSize == 0 {
		cfg.Align.WindowSize = DefaultWindowSize
	}
	if cfg.Align.MinSentenceTokens == 0 {
		cfg.Align.MinSentenceTokens = DefaultMinSentenceTokens
	}
	if cfg.Align.ConsensusThreshold == 0 {
		cfg.Align.ConsensusThreshold = DefaultConsensusThreshold
	}
	if cfg.Align.Mode == "" {
		cfg.Align.Mode = ModeParagraph
	}
	if cfg.Align.ViewWindow == 0 {
		cfg.Align.ViewWindow = DefaultViewWindow
	}
	// The source side is compared through its translation, the destination as written.
	if cfg.Align.Variants.Src == "" {
		cfg.Align.Variants.Src = models.Translated
	}
	if cfg.Align.Variants.Dst == "" {
		cfg.Align.Variants.Dst = models.Original
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
