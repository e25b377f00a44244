// Package source reads incident documents from the document database.
package source

import (
	"context"

	"wazecli/internal/incident"
)

// DocumentSource is a read-only collection of incident documents.
// Implementations own their connection; callers release it with Close.
type DocumentSource interface {
	// Ping verifies connectivity
	Ping(ctx context.Context) error
	// Count returns the number of documents in the collection
	Count(ctx context.Context) (int64, error)
	// Each calls fn for every document in natural order, stopping at the first error
	Each(ctx context.Context, fn func(incident.Document) error) error
	// Close releases the connection
	Close(ctx context.Context) error
}
