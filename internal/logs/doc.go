// Package logs provides file tailing and offset helpers for the CLI "logs"
// command.
//
// It reads log files with bounded memory, supports negative offsets for
// "last N lines" reads, and powers follow mode by polling from a saved
// offset. Callers supply context deadlines so polling stops when the CLI
// exits.
package logs
