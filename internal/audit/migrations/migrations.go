// Package migrations embeds the SQL migration set for the Postgres
// audit sink so the binary carries its own schema and golang-migrate
// never needs a filesystem path resolved relative to the working
// directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
