// Package sqlite stores built indexes in a single SQLite file using the
// cgo-free modernc.org/sqlite driver.
//
// One row in indexes describes a collection and the model that embedded it.
// Its rows in chunks carry the text span and the embedding as packed
// little-endian float32. Schema changes live in migrations/ as numbered
// NNN_name.up.sql files applied in order on open.
//
// The database runs in WAL mode and is safe for concurrent use.
package sqlite
