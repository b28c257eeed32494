package checkerboard

import "embed"

// WebFS holds the browser client served under /.
//
//go:embed web
var WebFS embed.FS
