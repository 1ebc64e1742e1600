// Package migrations embeds the versioned SQL schema so binaries and tests
// migrate without a migrations directory on disk.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file
//
//go:embed *.sql
var FS embed.FS
