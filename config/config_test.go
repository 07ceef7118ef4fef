package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.MaxUnitSize != 1000 {
		t.Errorf("expected MaxUnitSize=1000, got %d", cfg.Chunk.MaxUnitSize)
	}
	if cfg.Retrieve.Limit != 4 {
		t.Errorf("expected Limit=4, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Retrieve.MinSimilarity != 0.5 {
		t.Errorf("expected MinSimilarity=0.5, got %f", cfg.Retrieve.MinSimilarity)
	}
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("expected ada-002 model, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("expected Dimension=1536, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Store.Driver != "bolt" {
		t.Errorf("expected bolt driver, got %s", cfg.Store.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docrag.yaml")

	content := `
chunk:
  max_unit_size: 400
retrieve:
  limit: 8
  min_similarity: 0.75
embedding:
  provider: mock
  dimension: 64
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.MaxUnitSize != 400 {
		t.Errorf("expected MaxUnitSize=400, got %d", cfg.Chunk.MaxUnitSize)
	}
	if cfg.Retrieve.Limit != 8 {
		t.Errorf("expected Limit=8, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Retrieve.MinSimilarity != 0.75 {
		t.Errorf("expected MinSimilarity=0.75, got %f", cfg.Retrieve.MinSimilarity)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimension != 64 {
		t.Errorf("expected mock/64, got %s/%d", cfg.Embedding.Provider, cfg.Embedding.Dimension)
	}
	// untouched sections keep their defaults
	if cfg.Store.Driver != "bolt" {
		t.Errorf("expected default driver, got %s", cfg.Store.Driver)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad driver", "store:\n  driver: sqlite\n", "Driver"},
		{"postgres without dsn", "store:\n  driver: postgres\n", "DSN"},
		{"zero limit", "retrieve:\n  limit: 0\n", "Limit"},
		{"unknown provider", "embedding:\n  provider: voyage\n", "Provider"},
		{"bad log level", "logging:\n  level: loud\n", "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "docrag.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".docrag", "config.yaml")

	content := `
retrieve:
  limit: 12
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.Limit != 12 {
		t.Errorf("expected Limit=12, got %d", cfg.Retrieve.Limit)
	}
}

func TestLoadFromDir_PrefersRootFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "docrag.yaml"), []byte("retrieve:\n  limit: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".docrag", "config.yaml"), []byte("retrieve:\n  limit: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retrieve.Limit != 2 {
		t.Errorf("expected Limit=2 from docrag.yaml, got %d", cfg.Retrieve.Limit)
	}
}

func TestStoreDBPath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StoreDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".docrag", "docrag.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Path = "/var/lib/docrag/store.db"
	if got := cfg.StoreDBPath("/home/user/project"); got != cfg.Store.Path {
		t.Errorf("expected absolute path to be kept, got %s", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docrag.yaml")
	cfg := DefaultConfig()
	cfg.Retrieve.Limit = 7

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Retrieve.Limit != 7 {
		t.Errorf("expected Limit=7, got %d", loaded.Retrieve.Limit)
	}
}
