// Package cleanup finds and removes database garbage: surplus revisions,
// old trash, spam comments and expired transients.
package cleanup

import "context"

// Analyzer measures and removes one kind of garbage.
type Analyzer interface {
	Name() string
	Description() string
	// Count reports how many rows Clean would remove.
	Count(ctx context.Context) (int64, error)
	// Clean removes the rows and reports how many went.
	Clean(ctx context.Context) (int64, error)
}

// Analyzer names.
const (
	Revisions  = "revisions"
	Trash      = "trash"
	Spam       = "spam"
	Transients = "transients"
)
