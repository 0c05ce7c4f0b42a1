package links

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/shortyapp/shorty/codegen"
)

const (
	MinCodeLength = codegen.MinLength
	MaxCodeLength = codegen.MaxLength
	MaxURLLength  = 2048
)

var (
	ErrCodeLength   = fmt.Errorf("code must be between %d and %d characters", MinCodeLength, MaxCodeLength)
	ErrCodeCharset  = errors.New("code may only contain letters, digits, '-' and '_'")
	ErrCodeReserved = errors.New("code is reserved")
)

// ReservedCodes are the top-level path segments routed to something other
// than code resolution. A link stored under one could never be resolved.
var ReservedCodes = []string{"codes", "links", "shorten", "x"}

// IsReservedCode reports whether code collides with a server route.
// The comparison is exact, matching the case-sensitive router.
func IsReservedCode(code string) bool {
	return slices.Contains(ReservedCodes, code)
}

// ValidateCode checks a code against the constraints shared by generated and
// custom codes. Callers trim surrounding whitespace first.
func ValidateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return ErrCodeLength
	}
	for i := 0; i < len(code); i++ {
		if !isCodeChar(code[i]) {
			return ErrCodeCharset
		}
	}
	return nil
}

func isCodeChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}

func validateTargetURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("url too long (max %d characters)", MaxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if !u.IsAbs() {
		return errors.New("url must be absolute and include a scheme")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if u.Host == "" || u.Hostname() == "" {
		return errors.New("url must include host")
	}
	return nil
}
