// Package motor owns the live work day and every command that changes it.
//
// A Motor holds at most one DayLog and walks it through NOT_STARTED,
// ACTIVE (phases pre, active and ending) and LOCKED. Commands run one at a
// time under a single mutex. Each applied command bumps a revision counter
// and notifies subscribers after the lock is released; queries such as
// Snapshot and UnresolvedItems never bump it.
//
// Entry orchestration (draft reconciliation, schema detection) is deferred
// to a FIFO task queue keyed to the day's session id, so work scheduled for
// a day that was discarded never touches its successor. Call Flush to drain
// the queue, or set Options.AutoFlush.
//
// Locking a day pushes it to history and, when export is configured, queues
// an export packet in the outbox and nudges the Syncer. Delivery itself is
// owned by exportsync and never reads the live day.
package motor
