// Package donordb provides the durable donor store and its in-memory indexes.
//
// # Overview
//
// Donors live in a single append-only text file: a header line followed by one
// record per line, encoded by package donor. [Open] replays the file into a
// [Cache]; [Store.Add] appends a new record and only then inserts it into the
// cache, so the cache never holds a record that is not on disk.
//
// # Secondary Index
//
// [Cache] groups records by normalized blood group. The grouping is derived
// state: it is rebuilt from the file at every start and never persisted.
//
// # Concurrency
//
// [Store.Add] holds a mutex across the append and the cache insert. [Cache] is
// safe for concurrent readers.
package donordb
