// Package idgen generates entity identifiers.
package idgen

import (
	"github.com/google/uuid"
	"github.com/runoshun/maestro/internal/domain"
)

// Ensure UUID implements domain.IDGenerator.
var _ domain.IDGenerator = UUID{}

// UUID produces "<prefix>_<uuid v4>" identifiers.
type UUID struct{}

// NewID returns a fresh identifier. An empty prefix yields the bare UUID.
func (UUID) NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
