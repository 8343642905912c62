package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultFile = "chatmem.toml"
	EnvPrefix   = "CHATMEM_"
)

type Config struct {
	Input         string `toml:"input" env:"INPUT"`
	ChunksDir     string `toml:"chunks_dir" env:"CHUNKS_DIR"`
	ChaptersDir   string `toml:"chapters_dir" env:"CHAPTERS_DIR"`
	Schema        string `toml:"schema" env:"SCHEMA"`
	DBPath        string `toml:"db_path" env:"DB_PATH"`
	TurnsPerChunk int    `toml:"turns_per_chunk" env:"TURNS_PER_CHUNK"`
	OverlapTurns  int    `toml:"overlap_turns" env:"OVERLAP_TURNS"`
	LogLevel      string `toml:"log_level" env:"LOG_LEVEL"`
	Index         bool   `toml:"index" env:"INDEX"`

	// Source is the config file that was read, empty if none.
	Source string `toml:"-"`
}

func Default() *Config {
	return &Config{
		Input:         filepath.Join("input", "raw_chat.txt"),
		ChunksDir:     "chunks",
		ChaptersDir:   filepath.Join("output", "chapters"),
		Schema:        "schema.yaml",
		DBPath:        filepath.Join("output", "chatmem.db"),
		TurnsPerChunk: 10,
		OverlapTurns:  0,
		LogLevel:      "info",
		Index:         true,
	}
}

// Load builds the configuration from defaults, then the TOML file, then
// .env, then CHATMEM_* environment variables. An empty path means
// chatmem.toml in the working directory, which may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	cfgPath := path
	if cfgPath == "" {
		cfgPath = DefaultFile
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
		cfg.Source = cfgPath
	} else if path != "" {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	// .env is optional and never overrides variables already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// expand ~ in paths
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Input = expandHome(cfg.Input, home)
		cfg.ChunksDir = expandHome(cfg.ChunksDir, home)
		cfg.ChaptersDir = expandHome(cfg.ChaptersDir, home)
		cfg.Schema = expandHome(cfg.Schema, home)
		cfg.DBPath = expandHome(cfg.DBPath, home)
	}

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
