// Package repositories implements SQLite persistence for client-side state.
//
// The only persisted state is the session: an opaque bearer token and a serialized profile summary.
// [KVRepository] stores both as rows of the kv_entries table created by the embedded migrations in shared.
// Writes and deletes that touch several keys run in a single transaction so the two session entries can never
// diverge on disk.
package repositories
