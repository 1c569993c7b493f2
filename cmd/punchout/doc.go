// Package main hosts the Punchout CLI entrypoint and command graph.
//
// Every invocation opens the day store and the export outbox, builds a
// motor.Motor, runs one or more motor commands, drains deferred work, and
// closes the stores again. The store takes a process lock, so two concurrent
// invocations fail fast instead of racing on the day file.
//
// Overlays such as the wage editor survive between invocations through the
// persisted UX state, which is how "time add" and "time confirm" cooperate.
package main
