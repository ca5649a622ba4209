// Package templates embeds the built-in code templates.
package templates

import "embed"

//go:embed java kotlin go
var FS embed.FS
