// Package history persists a ledger of tool runs (docs, images, split, ytdlp)
// backed by SQLite, so past downloads and their output locations can be listed
// and pruned from the CLI.
package history
