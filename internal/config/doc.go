// Package config provides centralized configuration management for LedgerPulse.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is layered in the following order (later wins):
//
//	1. Default() values
//	2. A YAML file (LEDGER_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern LEDGER_<SECTION>_<FIELD>:
//
//	LEDGER_SERVER_PORT=8080
//	LEDGER_FEEDS_WORKS_URL=https://docs.google.com/.../pub?output=csv&gid=0
//	LEDGER_FEEDS_REFRESH_INTERVAL=30s
//	LEDGER_FEEDS_SOURCE=sheets
//	LEDGER_LOGGING_LEVEL=debug
//
// # Feeds
//
// The csv source fetches the two published CSV exports over HTTP. The sheets
// source reads the same tabs through the Google Sheets API and needs either a
// service account credentials file or an API key.
//
// # Validation
//
// Struct tags are checked with go-playground/validator, followed by the
// cross-field rules in validate().
package config
