// ABOUTME: Embedded default templates for generated documents
// ABOUTME: A template root on disk can override any of these by name
package render

import "embed"

//go:embed templates/*.md.tmpl
var templateFS embed.FS

// Template names recognized by the engine
const (
	ContextTemplate  = "context"
	RecoveryTemplate = "session-recovery"
)
