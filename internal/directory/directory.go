package directory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a space identifier is unknown.
var ErrNotFound = errors.New("space not found")

// Space describes the rectangular grid of one space.
type Space struct {
	ID     string
	Name   string
	Width  int
	Height int
}

// Directory resolves space identifiers to their bounds.
type Directory interface {
	Lookup(ctx context.Context, spaceID string) (*Space, error)
}
