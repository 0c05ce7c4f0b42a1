// Package codegen produces candidate short codes.
// Generators do not check uniqueness; callers reserve codes against a store
// and must treat collisions as a normal outcome.
package codegen

import (
	"crypto/rand"
	"fmt"
)

const (
	// Alphabet is the URL-safe character set codes are drawn from.
	// It has exactly 64 symbols so each random byte maps without bias.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	DefaultLength = 6
	MinLength     = 3
	MaxLength     = 32
)

// Generator produces candidate codes.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (string, error)
}

type randomGenerator struct {
	length int
}

// NewRandom returns a Generator producing codes of the given length.
// It returns an error when length falls outside [MinLength, MaxLength].
func NewRandom(length int) (Generator, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("code length %d out of range [%d, %d]", length, MinLength, MaxLength)
	}
	return &randomGenerator{length: length}, nil
}

// NewDefault returns a Generator producing DefaultLength codes.
func NewDefault() Generator {
	return &randomGenerator{length: DefaultLength}
}

func (g *randomGenerator) Generate() (string, error) {
	b := make([]byte, g.length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	for i := range b {
		b[i] = Alphabet[b[i]&63]
	}
	return string(b), nil
}

func (g *randomGenerator) Length() int { return g.length }

// Length reports the length of the codes produced by g, or 0 when g
// does not expose a Length method.
func Length(g Generator) int {
	if l, ok := g.(interface{ Length() int }); ok {
		return l.Length()
	}
	return 0
}
