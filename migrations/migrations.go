// Package migrations embeds the SQL schema migrations for the catalog
// and order tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
