package keystore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected empty key, got %q", cfg.APIKey)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := Save(path, Config{APIKey: "secret-key"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "secret-key" {
		t.Fatalf("got %q", cfg.APIKey)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("key file should be owner-only, got %v", info.Mode().Perm())
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for corrupt file")
	}
}
