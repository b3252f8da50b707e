// Package store provides the SQLite-backed repository behind silvernote.
//
// A Store owns one database file holding a single repository: its
// notebooks, the notes and categories inside them, and the shared clipart
// library. Every entity carries a content hash plus the last hashes sent to
// and received from a sync peer, so callers can compute what changed
// without diffing bodies.
//
// # Writes
//
// Single-entity writes go through the merge package: a patch is merged over
// the stored row and written back, deletes tombstone before they purge, and
// bulk Set/Update calls reconcile a desired list against what is stored.
// Hashes are recomputed on every write.
//
// # Database Configuration
//
//   - WAL mode with synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection, so statements never race each other
//
// The schema is versioned; Open upgrades older repositories one step at a
// time and refuses repositories written by a newer build.
package store
