// Package idgen assigns link identifiers.
package idgen

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Generator generates unique identifiers.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() (uuid.UUID, error)

func (f GeneratorFunc) Generate() (uuid.UUID, error) { return f() }

type v7Gen struct {
	maxRetries int
	newID      func() (uuid.UUID, error)
}

type Option func(*v7Gen)

// WithRetries sets how many times to retry after the first failed draw.
// Negative values are ignored.
func WithRetries(n int) Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// NewV7 returns a Generator producing time-ordered UUID v7 values, so that
// sorting by ID within one creation timestamp keeps insertion order.
func NewV7(opts ...Option) Generator {
	g := &v7Gen{maxRetries: 1, newID: uuid.NewV7}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	var last error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		id, err := g.newID()
		if err == nil {
			return id, nil
		}
		last = err
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.maxRetries+1, last)
}

// ErrMalformed is returned by Parse for strings that are not link IDs.
var ErrMalformed = errors.New("malformed link id")

// Parse parses a textual link ID. The nil UUID is rejected.
func Parse(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrMalformed
	}
	return id, nil
}
