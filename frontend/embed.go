// Package frontend embeds the static dashboard assets.
package frontend

import "embed"

//go:embed dist
var StaticFiles embed.FS
