// Package schema holds the static form definitions (field sets, required
// flags, trigger keywords) and creates runtime instances from them.
//
// Fields reported by IsNeverAutoFill are always created empty. No context,
// trigger or caller-provided value may populate them at creation time.
package schema
