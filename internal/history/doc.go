// Package history keeps a SQLite log of completed and failed renders so past
// outputs can be listed and traced back to their song descriptors.
package history
