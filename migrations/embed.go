// Package migrations holds the versioned schema for every supported engine.
// Files follow golang-migrate naming: NNNNNN_title.up.sql / .down.sql.
package migrations

import "embed"

//go:embed mysql/*.sql postgres/*.sql sqlite/*.sql
var FS embed.FS
