// Package scripting checks and evaluates document-level JavaScript.
package scripting

import (
	"context"
	"errors"
)

// ErrInvalidScript wraps compile errors reported by Validate.
var ErrInvalidScript = errors.New("invalid script")

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs script and returns its completion value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDOM exposes the document to scripts.
	RegisterDOM(dom DocumentDOM) error
}

// DocumentDOM is the subset of the viewer document object scripts can reach
// while a document is still being built.
type DocumentDOM interface {
	// NumPages is exposed as the global numPages.
	NumPages() int

	// Info returns an info dictionary entry such as "Title"; scripts read it
	// through info.<key>.
	Info(key string) string

	// Alert receives app.alert messages.
	Alert(message string)
}
