// Package dashboard provides the embedded web UI assets for rigpanel.
//
// The page is compiled into the binary with Go's embed directive, so the
// panel ships as a single executable.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
