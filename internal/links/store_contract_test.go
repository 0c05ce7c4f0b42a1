package links

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/errx"
)

// tickingClock returns a Now func that advances one second per call, so
// creation order is unambiguous in every backend.
func tickingClock() func() time.Time {
	var n atomic.Int64
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

// runStoreContract exercises the behaviour every Store must provide.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert assigns id and timestamp", func(t *testing.T) {
		s := newStore(t)

		got, err := s.Insert(ctx, Link{Code: "abc123", TargetURL: "https://example.com", OwnerID: "u1"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, got.ID)
		assert.False(t, got.CreatedAt.IsZero())
		assert.Equal(t, "abc123", got.Code)
		assert.Equal(t, auth.Identity("u1"), got.OwnerID)

		found, err := s.FindByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, got.ID, found.ID)
		assert.Equal(t, "https://example.com", found.TargetURL)
		assert.Equal(t, auth.Identity("u1"), found.OwnerID)
		assert.True(t, got.CreatedAt.Equal(found.CreatedAt), "created_at %v != %v", got.CreatedAt, found.CreatedAt)
	})

	t.Run("duplicate code conflicts and keeps the original", func(t *testing.T) {
		s := newStore(t)

		first, err := s.Insert(ctx, Link{Code: "my-link", TargetURL: "https://a.com", OwnerID: "u1"})
		require.NoError(t, err)

		_, err = s.Insert(ctx, Link{Code: "my-link", TargetURL: "https://b.com", OwnerID: "u2"})
		require.Error(t, err)
		assert.Equal(t, errx.Conflict, errx.KindOf(err))

		found, err := s.FindByCode(ctx, "my-link")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		assert.Equal(t, "https://a.com", found.TargetURL)
	})

	t.Run("codes are case-sensitive", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, Link{Code: "AbC", TargetURL: "https://upper.example", OwnerID: "u1"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, Link{Code: "abc", TargetURL: "https://lower.example", OwnerID: "u1"})
		require.NoError(t, err)

		upper, err := s.FindByCode(ctx, "AbC")
		require.NoError(t, err)
		assert.Equal(t, "https://upper.example", upper.TargetURL)

		_, err = s.FindByCode(ctx, "ABC")
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("find missing code", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindByCode(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("find by owner is scoped and ordered", func(t *testing.T) {
		s := newStore(t)

		var want []uuid.UUID
		for i := range 3 {
			l, err := s.Insert(ctx, Link{Code: fmt.Sprintf("a-%d", i), TargetURL: "https://a.com", OwnerID: "alice"})
			require.NoError(t, err)
			want = append(want, l.ID)

			_, err = s.Insert(ctx, Link{Code: fmt.Sprintf("b-%d", i), TargetURL: "https://b.com", OwnerID: "bob"})
			require.NoError(t, err)
		}

		got, err := s.FindByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, l := range got {
			assert.Equal(t, want[i], l.ID)
			assert.Equal(t, auth.Identity("alice"), l.OwnerID)
		}

		none, err := s.FindByOwner(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("anonymous links are never listed", func(t *testing.T) {
		s := newStore(t)

		anon, err := s.Insert(ctx, Link{Code: "anon1", TargetURL: "https://a.com"})
		require.NoError(t, err)
		assert.True(t, anon.OwnerID.IsAnonymous())

		found, err := s.FindByCode(ctx, "anon1")
		require.NoError(t, err)
		assert.True(t, found.OwnerID.IsAnonymous())

		listed, err := s.FindByOwner(ctx, auth.Anonymous)
		require.NoError(t, err)
		assert.Empty(t, listed)

		err = s.DeleteOwned(ctx, anon.ID, auth.Anonymous)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("delete only by owner", func(t *testing.T) {
		s := newStore(t)

		l, err := s.Insert(ctx, Link{Code: "mine", TargetURL: "https://a.com", OwnerID: "u1"})
		require.NoError(t, err)

		err = s.DeleteOwned(ctx, l.ID, "u2")
		require.Error(t, err)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))

		_, err = s.FindByCode(ctx, "mine")
		require.NoError(t, err, "non-owner delete must not remove the link")

		require.NoError(t, s.DeleteOwned(ctx, l.ID, "u1"))

		_, err = s.FindByCode(ctx, "mine")
		assert.Equal(t, errx.NotFound, errx.KindOf(err))

		err = s.DeleteOwned(ctx, l.ID, "u1")
		assert.Equal(t, errx.NotFound, errx.KindOf(err), "second delete")

		err = s.DeleteOwned(ctx, uuid.New(), "u1")
		assert.Equal(t, errx.NotFound, errx.KindOf(err), "unknown id")
	})

	t.Run("code is reusable after delete", func(t *testing.T) {
		s := newStore(t)

		l, err := s.Insert(ctx, Link{Code: "again", TargetURL: "https://a.com", OwnerID: "u1"})
		require.NoError(t, err)
		require.NoError(t, s.DeleteOwned(ctx, l.ID, "u1"))

		_, err = s.Insert(ctx, Link{Code: "again", TargetURL: "https://b.com", OwnerID: "u2"})
		require.NoError(t, err)
	})

	t.Run("concurrent inserts of one code have one winner", func(t *testing.T) {
		s := newStore(t)

		const n = 16
		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Insert(ctx, Link{
					Code:      "race",
					TargetURL: fmt.Sprintf("https://example.com/%d", i),
					OwnerID:   auth.Identity(fmt.Sprintf("u%d", i)),
				})
				switch {
				case err == nil:
					wins.Add(1)
				case errx.KindOf(err) == errx.Conflict:
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(n-1), conflicts.Load())
	})
}
