package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		path := writeTempConfig(t, "project: kanto-run\nversion: 1\nserver:\n  addr: \":9000\"\nstorage:\n  backend: sqlite\n  dsn: sqlite://./saves.db\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "kanto-run" || cfg.Server.Addr != ":9000" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if cfg.Storage.Backend != BackendSQLite {
			t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
		}
		if cfg.GameVersion != "Black2White2" || cfg.Log.Level != "info" {
			t.Fatalf("defaults not applied: %+v", cfg)
		}
	})

	t.Run("scaffold is valid", func(t *testing.T) {
		path := writeTempConfig(t, string(Scaffold("demo")))
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("scaffold did not load: %v", err)
		}
		if cfg.Storage.Backend != BackendFile || cfg.Storage.SavesDir != "./saves" {
			t.Fatalf("unexpected storage %+v", cfg.Storage)
		}
	})

	tests := []struct {
		name     string
		contents string
	}{
		{"missing project name", "project: \"\"\nversion: 1\n"},
		{"unsupported version", "project: test\nversion: 2\n"},
		{"unknown backend", "project: test\nversion: 1\nstorage:\n  backend: mongo\n"},
		{"sqlite without dsn", "project: test\nversion: 1\nstorage:\n  backend: sqlite\n"},
		{"postgres with sqlite dsn", "project: test\nversion: 1\nstorage:\n  backend: postgres\n  dsn: sqlite://x.db\n"},
		{"file without dir", "project: test\nversion: 1\nstorage:\n  backend: file\n  saves_dir: \"\"\n"},
		{"bad log level", "project: test\nversion: 1\nlog:\n  level: loud\n"},
		{"invalid yaml", "project: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadProjectConfig(writeTempConfig(t, tt.contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POKESTATE_ADDR", ":7777")
	t.Setenv("POKESTATE_STORAGE_BACKEND", "Postgres")
	t.Setenv("POKESTATE_STORAGE_DSN", "postgres://u:p@localhost/db")
	t.Setenv("POKESTATE_LOG_LEVEL", "debug")

	cfg, err := LoadProjectConfig(writeTempConfig(t, "project: test\nversion: 1\nserver:\n  addr: \":8000\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Fatalf("addr override ignored: %q", cfg.Server.Addr)
	}
	if cfg.Storage.Backend != BackendPostgres || cfg.Storage.DSN != "postgres://u:p@localhost/db" {
		t.Fatalf("storage override ignored: %+v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level override ignored: %q", cfg.Log.Level)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		t.Setenv("POKESTATE_SAVES_DIR", "/tmp/pokestate-saves")
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "pokestate.yaml"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Server.Addr != ":8000" || cfg.Storage.Backend != BackendFile {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
		if cfg.Storage.SavesDir != "/tmp/pokestate-saves" {
			t.Fatalf("env not applied to defaults: %q", cfg.Storage.SavesDir)
		}
	})

	t.Run("invalid file is still an error", func(t *testing.T) {
		if _, err := LoadOrDefault(writeTempConfig(t, "project: [\n")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pokestate.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
