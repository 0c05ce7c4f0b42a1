package links

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/errx"
)

var (
	ErrCodeTaken    = errors.New("code already taken")
	ErrLinkNotFound = errors.New("link not found")
)

// MemoryStore keeps links in process memory. A single mutex guards the code
// index and the owner index together, which makes Insert atomic.
type MemoryStore struct {
	mu      sync.RWMutex
	byCode  map[string]Link
	codeOf  map[uuid.UUID]string
	byOwner map[auth.Identity][]uuid.UUID // insertion order
	stamp   stamper
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(cfg *StoreConfig) *MemoryStore {
	return &MemoryStore{
		byCode:  make(map[string]Link),
		codeOf:  make(map[uuid.UUID]string),
		byOwner: make(map[auth.Identity][]uuid.UUID),
		stamp:   newStamper(cfg),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, link Link) (Link, error) {
	const op = "links.memory.Insert"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	link, err := s.stamp.stamp(link)
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, fmt.Errorf("assign id: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byCode[link.Code]; taken {
		return Link{}, errx.E(op, errx.Conflict, ErrCodeTaken)
	}
	if _, taken := s.codeOf[link.ID]; taken {
		return Link{}, errx.E(op, errx.Unavailable, fmt.Errorf("duplicate link id %s", link.ID))
	}

	s.byCode[link.Code] = link
	s.codeOf[link.ID] = link.Code
	if !link.OwnerID.IsAnonymous() {
		s.byOwner[link.OwnerID] = append(s.byOwner[link.OwnerID], link.ID)
	}
	return link, nil
}

func (s *MemoryStore) FindByCode(ctx context.Context, code string) (Link, error) {
	const op = "links.memory.FindByCode"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.byCode[code]
	if !ok {
		return Link{}, errx.E(op, errx.NotFound, ErrLinkNotFound)
	}
	return link, nil
}

func (s *MemoryStore) FindByOwner(ctx context.Context, owner auth.Identity) ([]Link, error) {
	const op = "links.memory.FindByOwner"

	if err := ctx.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOwner[owner]
	out := make([]Link, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byCode[s.codeOf[id]])
	}
	return out, nil
}

func (s *MemoryStore) DeleteOwned(ctx context.Context, id uuid.UUID, owner auth.Identity) error {
	const op = "links.memory.DeleteOwned"

	if err := ctx.Err(); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codeOf[id]
	if !ok || owner.IsAnonymous() || s.byCode[code].OwnerID != owner {
		return errx.E(op, errx.NotFound, ErrLinkNotFound)
	}

	delete(s.byCode, code)
	delete(s.codeOf, id)

	ids := s.byOwner[owner]
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(s.byOwner, owner)
	} else {
		s.byOwner[owner] = ids
	}
	return nil
}

// Len returns the number of stored links.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCode)
}
