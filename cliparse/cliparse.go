// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/quest-tally/rank"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	EditKeySalt   string
	DefaultMethod rank.Method
	EnvFile       string
	Verbose       bool
}

// Driver returns the database/sql driver name for the database type
func (c Config) Driver() string {
	if c.DatabaseType == "postgres" {
		return "postgres"
	}
	return "sqlite"
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var method string

	fs := flag.NewFlagSet("quest-tally", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.EditKeySalt, "edit-salt", "", "Edit key salt (prefer env)")

	fs.StringVar(&method, "method", "", "Default ranking method")
	fs.StringVar(&cfg.EnvFile, "env", ".env", "Env file to load before reading the environment")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose (debug) logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(cfg.EnvFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unknown database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.EditKeySalt == "" {
		cfg.EditKeySalt = os.Getenv("EDIT_KEY_SALT")
	}
	if cfg.EditKeySalt == "" {
		return Config{}, errors.New("EDIT_KEY_SALT required")
	}

	if method == "" {
		method = os.Getenv("RANK_METHOD")
	}
	m, err := rank.ParseMethod(method)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultMethod = m

	return cfg, nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
