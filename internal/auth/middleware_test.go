package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Anonymous, FromContext(ctx))

	ctx = WithIdentity(ctx, "u1")
	assert.Equal(t, Identity("u1"), FromContext(ctx))
	assert.False(t, FromContext(ctx).IsAnonymous())
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(r), "header %q", tt.header)
	}
}

func TestRequire(t *testing.T) {
	iss, v := newPair(t, "shorty")
	token, err := iss.Issue("u1", time.Hour)
	require.NoError(t, err)

	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := Require(v, discardLogger())(next)

	t.Run("passes identity through", func(t *testing.T) {
		seen = Anonymous
		r := httptest.NewRequest(http.MethodGet, "/codes", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, Identity("u1"), seen)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		seen = Anonymous
		r := httptest.NewRequest(http.MethodGet, "/codes", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
		assert.Contains(t, w.Body.String(), "unauthorized")
		assert.True(t, seen.IsAnonymous())
	})

	t.Run("rejects bad token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/codes", nil)
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptional(t *testing.T) {
	iss, v := newPair(t, "")
	token, err := iss.Issue("u9", time.Hour)
	require.NoError(t, err)

	var seen Identity
	h := Optional(v, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/shorten", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, seen.IsAnonymous())

	r = httptest.NewRequest(http.MethodPost, "/shorten", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Identity("u9"), seen)

	r = httptest.NewRequest(http.MethodPost, "/shorten", nil)
	r.Header.Set("Authorization", "Bearer broken")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
