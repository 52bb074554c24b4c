// Package migrations holds the store schema, applied at startup with golang-migrate
package migrations

import "embed"

// FS contains the numbered up/down SQL files
//
//go:embed *.sql
var FS embed.FS
