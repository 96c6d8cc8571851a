// Package assets embeds the files shipped with the binary.
package assets

import "embed"

// EmailDir is the directory of the e-mail templates inside FS.
const EmailDir = "templates/email"

//go:embed all:templates
var FS embed.FS
