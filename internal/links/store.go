package links

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/idgen"
)

// Store persists links. Implementations must be safe for concurrent use and
// report failures as errx kinds: NotFound, Conflict or Unavailable.
type Store interface {
	// Insert stores link if no link with the same code exists, as one atomic
	// step. A taken code yields errx.Conflict. ID and CreatedAt are assigned
	// by the store when zero.
	Insert(ctx context.Context, link Link) (Link, error)
	// FindByCode returns the link with exactly this code.
	FindByCode(ctx context.Context, code string) (Link, error)
	// FindByOwner returns owner's links ordered by creation time, then ID.
	FindByOwner(ctx context.Context, owner auth.Identity) ([]Link, error)
	// DeleteOwned removes the link with id only if owner owns it. Any other
	// case yields errx.NotFound.
	DeleteOwned(ctx context.Context, id uuid.UUID, owner auth.Identity) error
}

// StoreConfig holds the collaborators stores use to stamp new links.
type StoreConfig struct {
	IDGenerator idgen.Generator
	Now         func() time.Time
}

type stamper struct {
	ids idgen.Generator
	now func() time.Time
}

func newStamper(cfg *StoreConfig) stamper {
	if cfg == nil {
		cfg = &StoreConfig{}
	}
	s := stamper{ids: cfg.IDGenerator, now: cfg.Now}
	if s.ids == nil {
		s.ids = idgen.NewV7()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s stamper) stamp(link Link) (Link, error) {
	if link.ID == uuid.Nil {
		id, err := s.ids.Generate()
		if err != nil {
			return Link{}, err
		}
		link.ID = id
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = s.now()
	}
	// Stores compare and order timestamps; keep them in one zone at
	// microsecond precision so every backend round-trips them unchanged.
	link.CreatedAt = link.CreatedAt.UTC().Truncate(time.Microsecond)
	return link, nil
}
