package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shortyapp/shorty/internal/errx"
	"github.com/shortyapp/shorty/internal/httpx"
)

// TokenVerifier is the part of Verifier the middleware depends on.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Require rejects requests without a valid bearer token with 401 and
// otherwise stores the caller's identity in the request context.
func Require(v TokenVerifier, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(bearerToken(r))
			if err != nil {
				logger.WarnContext(r.Context(), "authentication failed",
					"request_id", httpx.GetRequestID(r.Context()),
					"path", r.URL.Path,
					"error", err.Error(),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="shorty"`)
				httpx.WriteError(w, http.StatusUnauthorized,
					httpx.ErrorKindToCode(errx.Unauthorized), "authentication required", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Optional attaches an identity when a valid token is presented and lets
// the request through anonymously otherwise. A token that is present but
// invalid is still rejected.
func Optional(v TokenVerifier, logger *slog.Logger) httpx.Middleware {
	required := Require(v, logger)
	return func(next http.Handler) http.Handler {
		withAuth := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			withAuth.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
