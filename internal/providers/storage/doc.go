// Package storage persists per-account data blobs for provider sessions.
//
// A Store holds one opaque string per account id. Backends:
//   - File: one file per account under a directory (default "asybalance")
//   - SQLite: a single table, via modernc.org/sqlite
//   - Redis: prefixed string keys, via go-redis
//   - Memory: process-local map, for tests and one-shot runs
//
// ForAccount adapts a Store to the per-session api.Storage collaborator.
package storage
