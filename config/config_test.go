package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feather.yaml")
	content := `
listen: ":9000"
storage:
  type: postgres
  database_url: "postgres://localhost/boards"
new_board:
  width: 40
  height: 30
  scale: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BOARD_DIR", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" || cfg.Storage.Type != StoragePostgres || cfg.Storage.DatabaseURL != "postgres://localhost/boards" {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.NewBoard != (BoardDefaults{Width: 40, Height: 30, Scale: 4}) {
		t.Fatalf("new_board: %+v", cfg.NewBoard)
	}
	// Unset keys keep their defaults.
	if cfg.Storage.Dir != "boards" || cfg.ChunkSize != 16 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{"PORT": "7777", "DB_TYPE": "postgres", "BOARD_DIR": "/srv/boards"}
	cfg.applyEnvironment(func(k string) string { return env[k] })
	if cfg.Listen != ":7777" || cfg.Storage.Type != StoragePostgres || cfg.Storage.Dir != "/srv/boards" {
		t.Fatalf("got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = "s3"
	cfg.NewBoard.Width = 0
	cfg.ChunkSize = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("want validation error")
	}
	for _, want := range []string{"storage.type", "new_board", "chunk_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
