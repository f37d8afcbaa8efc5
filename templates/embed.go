// Package templates embeds the default configuration and agent prompt files.
package templates

import "embed"

//go:embed config.yaml plan.md implement.md
var FS embed.FS
