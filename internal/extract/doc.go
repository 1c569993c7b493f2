// Package extract pulls structured facts out of free-text entries: the
// ordre number, a time range, known equipment, external system needs and
// the work-zone warning level. It also classifies text into an entry type.
//
// Everything here is deterministic and side-effect free.
package extract
