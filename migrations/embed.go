// Package migrations holds the versioned SQL schema, embedded into the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
