// Package migrations holds the schema in Postgres dialect. The SQLite store
// translates it on the fly.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
