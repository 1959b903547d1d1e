// Package history records merge batches in a SQLite database so past runs,
// and the file that stopped a failed run, can be listed later.
package history
