// Package web embeds the dashboard's templates and static assets so the
// server ships as a single binary.
package web

import "embed"

// TemplatesFS holds the HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds css and js served under /static/.
//
//go:embed static
var StaticFS embed.FS
