// Package appfs holds the files embedded in the binaries: SQL migrations and e-mail templates.
package appfs

import "embed"

// The email pattern lists files explicitly: a directory pattern would skip the `_base` layouts.
//go:embed migrations/*.sql templates/email/*
var FS embed.FS
