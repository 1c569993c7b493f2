// Package exportsync drains the export outbox.
//
// Engine.SyncOnce performs one pass: it resets items stuck in sending, prunes
// old sent items, claims the next eligible item and applies the delivery
// outcome with exponential backoff. Runner drives SyncOnce from a ticker and
// from explicit triggers. Neither touches the live DayLog; the outbox is the
// only shared state.
package exportsync
