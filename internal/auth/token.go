package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shortyapp/shorty/internal/errx"
)

// MinSecretLength is the shortest HMAC secret accepted.
const MinSecretLength = 32

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Verifier validates HS256 bearer tokens and extracts their subject.
type Verifier struct {
	key    []byte
	issuer string
}

// NewVerifier returns a Verifier for tokens signed with secret.
// When issuer is non-empty, tokens must carry a matching iss claim.
func NewVerifier(secret []byte, issuer string) (*Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	return &Verifier{key: secret, issuer: issuer}, nil
}

// Verify returns the identity named by the token's sub claim.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	const op = "auth.Verify"

	if tokenString == "" {
		return Anonymous, errx.E(op, errx.Unauthorized, ErrMissingToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return Anonymous, errx.E(op, errx.Unauthorized, fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}
	if !token.Valid || claims.Subject == "" {
		return Anonymous, errx.E(op, errx.Unauthorized, ErrInvalidToken)
	}

	return Identity(claims.Subject), nil
}

// Issuer mints bearer tokens. The service itself only verifies; minting
// exists for the admin CLI and tests.
type Issuer struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewIssuer(secret []byte, issuer string) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	return &Issuer{key: secret, issuer: issuer, now: time.Now}, nil
}

// Issue returns a signed token for id valid for ttl.
func (i *Issuer) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.IsAnonymous() {
		return "", errors.New("cannot issue a token for an anonymous identity")
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
