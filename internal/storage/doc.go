// Package storage persists the current day, the bounded history, the UX
// cursor and the device identifier as JSON values in a diskv store under
// the data directory.
//
// Loading the current day runs format migrations and turns a corrupt payload
// into a StorageError value instead of failing. A flock on the data
// directory keeps a second punchout process from writing the same files.
package storage
