// Package migrations embeds the catalog schema migrations for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
