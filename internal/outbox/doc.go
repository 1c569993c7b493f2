// Package outbox persists export packets in SQLite until they are delivered.
//
// Each row is keyed by the packet's export id, which doubles as the
// idempotency key on the wire. The Store owns connection setup (WAL, busy
// retry), schema versioning and the status transitions the sync engine
// drives: pending, sending, sent and failed. Stuck sends are reset and sent
// rows are pruned after a retention window.
//
// The database is a hand-off buffer, not an archive. Schema changes bump
// schemaVersion; users delete outbox.db to adopt a new schema.
package outbox
