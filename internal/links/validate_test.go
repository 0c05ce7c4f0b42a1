package links

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"length 2", "ab", ErrCodeLength},
		{"length 3", "abc", nil},
		{"length 32", strings.Repeat("a", 32), nil},
		{"length 33", strings.Repeat("a", 33), ErrCodeLength},
		{"empty", "", ErrCodeLength},
		{"full alphabet", "AZaz09-_", nil},
		{"space", "ab c", ErrCodeCharset},
		{"dot", "a.bc", ErrCodeCharset},
		{"slash", "ab/c", ErrCodeCharset},
		{"percent", "ab%20", ErrCodeCharset},
		{"non ascii", "ñandú", ErrCodeCharset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCode(tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCode(%q) = %v, want %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com", false},
		{"http with port and path", "http://localhost:8080/a/b?c=d", false},
		{"ip host", "http://127.0.0.1/", false},
		{"max length", "https://example.com/" + strings.Repeat("a", MaxURLLength-len("https://example.com/")), false},
		{"empty", "", true},
		{"too long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
		{"no scheme", "example.com", true},
		{"mailto", "mailto:a@example.com", true},
		{"data", "data:text/html,hi", true},
		{"missing host", "http:///path", true},
		{"bad escape", "https://example.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTargetURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTargetURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
