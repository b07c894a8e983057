// Package config provides 12-factor configuration management for the
// provider host.
//
// Configuration is loaded from environment variables with defaults. CLI
// flags can override environment variables.
//
// Configuration Sections:
//   - Server: execution API address
//   - Session: wall-clock budget and concurrency of provider sessions
//   - HTTP: outbound request defaults
//   - Storage: account data backend (file, sqlite, redis, memory)
//   - Remote: remote dispatch signature and call timeout
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting of the execution API
//
// Preferences and option documents are loaded from JSON, YAML or TOML
// files with LoadPreferences and LoadOptions.
package config
