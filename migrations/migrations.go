// Package migrations embeds the SQL schema migrations of every database backend.
package migrations

import "embed"

// FS holds one directory of NNN_name.sql files per backend.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
