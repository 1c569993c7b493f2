// Package rules evaluates admin-supplied conditions that decide when a schema
// is required or suggested.
//
// Conditions are plain data (field, comparator, value) combined with All, Any
// and Not so they can be stored in TOML or YAML rule files. Evaluation is a
// pure function of a Context built from the wall clock and the winter flag.
// Func wraps a Go closure for deployments that need logic the expression
// form cannot express.
package rules
