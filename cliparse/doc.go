// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: sqlite (default) or postgres
  - EditKeySalt: Secret for edit key HMAC (required)
  - DefaultMethod: Ranking method for tallies that don't name one (default: baldwin)
  - EnvFile: Env file loaded first (default: .env, ignored when missing)
  - Verbose: Debug logging

# CLI Flags

	-p          Server port
	-d          Database URL
	-t          Database type
	-edit-salt  Edit key salt
	-method     Default ranking method
	-env        Env file
	-v          Verbose logging

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	EDIT_KEY_SALT → -edit-salt
	RANK_METHOD   → -method

CLI flags take precedence over environment variables, and variables already
set take precedence over the env file.
*/
package cliparse
