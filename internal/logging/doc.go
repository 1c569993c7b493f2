// Package logging builds the slog loggers used by the punchout CLI and its
// background sync loop.
//
// Two handlers are supported: a console handler that prints one compact line
// per record with the component and day pulled to the front, and a JSON
// handler for machine consumption. Helpers here keep field names consistent
// so warnings always carry an event type, a hint and the impact.
package logging
