package migrations

import "embed"

// Files holds the schema scripts, applied once each in file name order.
//
//go:embed *.sql
var Files embed.FS
