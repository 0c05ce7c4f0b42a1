package codegen

import (
	"regexp"
	"strings"
	"sync"
	"testing"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestAlphabet(t *testing.T) {
	if len(Alphabet) != 64 {
		t.Fatalf("len(Alphabet) = %d, want 64", len(Alphabet))
	}

	seen := make(map[rune]bool, len(Alphabet))
	for _, c := range Alphabet {
		if seen[c] {
			t.Errorf("Alphabet contains duplicate %q", c)
		}
		seen[c] = true
	}
	if !strings.ContainsAny(Alphabet, "-_") {
		t.Error("Alphabet must contain a non-alphanumeric URL-safe symbol")
	}
}

func TestNewRandom(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"below minimum", 2, true},
		{"zero", 0, true},
		{"negative", -1, true},
		{"minimum", 3, false},
		{"default", 6, false},
		{"maximum", 32, false},
		{"above maximum", 33, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewRandom(tt.length)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRandom(%d) error = %v, wantErr %v", tt.length, err, tt.wantErr)
			}
			if !tt.wantErr && Length(gen) != tt.length {
				t.Errorf("Length() = %d, want %d", Length(gen), tt.length)
			}
		})
	}
}

func TestRandomGenerator_Generate(t *testing.T) {
	t.Run("default generator yields six characters", func(t *testing.T) {
		code, err := NewDefault().Generate()
		if err != nil {
			t.Fatalf("Generate() unexpected error: %v", err)
		}
		if len(code) != DefaultLength {
			t.Errorf("len(code) = %d, want %d", len(code), DefaultLength)
		}
		if !codePattern.MatchString(code) {
			t.Errorf("code %q contains characters outside the alphabet", code)
		}
	})

	t.Run("respects configured length", func(t *testing.T) {
		for _, length := range []int{3, 8, 16, 32} {
			gen, err := NewRandom(length)
			if err != nil {
				t.Fatalf("NewRandom(%d) unexpected error: %v", length, err)
			}
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if len(code) != length {
				t.Errorf("len(code) = %d, want %d", len(code), length)
			}
		}
	})

	t.Run("mostly distinct across many draws", func(t *testing.T) {
		gen, _ := NewRandom(12)
		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			seen[code] = struct{}{}
		}
		// 72 bits of entropy per code; a duplicate here means the source is broken.
		if len(seen) != 1000 {
			t.Errorf("got %d distinct codes out of 1000", len(seen))
		}
	})

	t.Run("safe for concurrent use", func(t *testing.T) {
		gen := NewDefault()

		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				code, err := gen.Generate()
				if err != nil {
					errs <- err
					return
				}
				if !codePattern.MatchString(code) {
					t.Errorf("invalid code %q", code)
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("Generate() concurrent error: %v", err)
		}
	})
}

type fixedGenerator struct{}

func (fixedGenerator) Generate() (string, error) { return "abc", nil }

type sizedGenerator struct{ n int }

func (g sizedGenerator) Generate() (string, error) { return strings.Repeat("a", g.n), nil }
func (g sizedGenerator) Length() int { return g.n }

func TestLength_UnknownGenerator(t *testing.T) {
	if got := Length(fixedGenerator{}); got != 0 {
		t.Errorf("Length() = %d, want 0", got)
	}
}

func TestLength_ForeignGeneratorWithLength(t *testing.T) {
	if got := Length(sizedGenerator{n: 9}); got != 9 {
		t.Errorf("Length() = %d, want 9", got)
	}
}
