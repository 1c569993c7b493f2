// Package daylog defines the persisted data model for one working day: the
// DayLog aggregate, its entries, per-ordre drafts, schema instances and the
// UX cursor. JSON tags match the on-disk format.
//
// Types here carry no behaviour beyond small invariant-preserving helpers
// (draft reconciliation, clock arithmetic, deep copies). Lifecycle rules live
// in the motor package.
package daylog
