// Package config loads the board server configuration.
//
// Configuration comes from an optional YAML file, then environment
// variables (PORT, DB_TYPE, DATABASE_URL, BOARD_DIR), then command-line
// flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config is the board server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	Storage StorageConfig `yaml:"storage"`

	// NewBoard is used when an editor opens a board that does not exist.
	NewBoard BoardDefaults `yaml:"new_board"`

	// ViewRadius caps the radius of view requests.
	ViewRadius int `yaml:"view_radius"`

	// ChunkSize is the side length of the spatial index chunks.
	ChunkSize int `yaml:"chunk_size"`
}

// StorageConfig selects and configures the board store.
type StorageConfig struct {
	Type        string `yaml:"type"`
	Dir         string `yaml:"dir"`
	DatabaseURL string `yaml:"database_url"`
}

// BoardDefaults is the size and scale of newly created boards.
type BoardDefaults struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
	Scale  int32 `yaml:"scale"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Storage: StorageConfig{
			Type:        StorageFile,
			Dir:         "boards",
			DatabaseURL: "host=localhost user=feather password=feather dbname=feather sslmode=disable",
		},
		NewBoard: BoardDefaults{
			Width:  64,
			Height: 64,
			Scale:  1,
		},
		ViewRadius: 32,
		ChunkSize:  16,
	}
}

// LoadFile loads configuration from path on top of the defaults and then
// applies environment overrides. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvironment(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnvironment(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	if dbType := getenv("DB_TYPE"); dbType != "" {
		c.Storage.Type = dbType
	}
	if url := getenv("DATABASE_URL"); url != "" {
		c.Storage.DatabaseURL = url
	}
	if dir := getenv("BOARD_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}

	switch c.Storage.Type {
	case StorageFile:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for file storage"))
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %q or %q, got %q", StorageFile, StoragePostgres, c.Storage.Type))
	}

	if c.NewBoard.Width <= 0 || c.NewBoard.Height <= 0 {
		errs = append(errs, fmt.Errorf("new_board size must be positive, got %dx%d", c.NewBoard.Width, c.NewBoard.Height))
	}
	if c.ViewRadius <= 0 {
		errs = append(errs, errors.New("view_radius must be positive"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk_size must be positive"))
	}

	return errors.Join(errs...)
}
