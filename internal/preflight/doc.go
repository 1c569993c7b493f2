// Package preflight provides readiness checks for the directories, the
// outbox database, the rule data and the export endpoint Punchout depends on.
//
// The CLI "punchout doctor" command runs RunAll and renders the results.
// The export runner uses CheckEndpoint before it starts its loop so an
// unreachable endpoint is reported once instead of on every tick.
//
// Each check is gated by its config: disabled export is reported as skipped.
package preflight
