package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_alignDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	a := cfg.Align
	if a.WindowSize != 20 || a.MinSentenceTokens != 4 || a.ConsensusThreshold != 0.6 {
		t.Errorf("unexpected align defaults: %+v", a)
	}
	if a.PreserveFixedOnRealign {
		t.Error("fixed choices should be discarded on realign by default")
	}
	if a.Variants.Src != models.Translated || a.Variants.Dst != models.Original {
		t.Errorf("unexpected variants: %+v", a.Variants)
	}
	if a.Mode != ModeParagraph {
		t.Errorf("mode: got %q", a.Mode)
	}
}

func TestLoad_alignOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
align:
  window_size: 5
  consensus_threshold: 0.75
  preserve_fixed_on_realign: true
  mode: sentence
  variants:
    source: original
    destination: translated
`))
	if err != nil {
		t.Fatal(err)
	}
	a := cfg.Align
	if a.WindowSize != 5 || a.ConsensusThreshold != 0.75 || !a.PreserveFixedOnRealign || a.Mode != ModeSentence {
		t.Errorf("overrides not applied: %+v", a)
	}
	if a.Variants.Src != models.Original || a.Variants.Dst != models.Translated {
		t.Errorf("variants: %+v", a.Variants)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"threshold above one", "align:\n  consensus_threshold: 1.5\n"},
		{"negative window", "align:\n  window_size: -3\n"},
		{"unknown mode", "align:\n  mode: word\n"},
		{"unknown variant", "align:\n  variants:\n    source: summary\n"},
		{"unknown translator", "translate:\n  kind: oracle\n"},
		{"libretranslate without url", "translate:\n  kind: libretranslate\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, apperrors.ErrInput) {
				t.Errorf("expected input error, got %v", err)
			}
		})
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/cache.db"
books:
  source_dir: "./books/fr"
  destination_dir: "/abs/en"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "cache.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path: got %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "books", "fr"); cfg.Books.SourceDir != want {
		t.Errorf("source_dir: got %q, want %q", cfg.Books.SourceDir, want)
	}
	if cfg.Books.DestinationDir != "/abs/en" {
		t.Errorf("absolute path should be unchanged, got %q", cfg.Books.DestinationDir)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := Default()
	cfg.Storage.DatabasePath = "/tmp/x.db"
	cfg.Align.WindowSize = 7
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Align.WindowSize != 7 || got.Storage.DatabasePath != "/tmp/x.db" {
		t.Errorf("round trip: %+v", got)
	}
}
