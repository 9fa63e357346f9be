// Package migrations embeds the goose SQL migrations so the server binary
// can apply them on startup without a migrations directory on disk.
package migrations

import "embed"

// FS holds the embedded migration files. Pass it to goose via SetBaseFS and
// run migrations against the "." directory.
//
//go:embed *.sql
var FS embed.FS
