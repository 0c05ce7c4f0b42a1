package links

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shortyapp/shorty/codegen"
	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/errx"
	"github.com/shortyapp/shorty/internal/idgen"
)

const (
	DefaultMaxAttempts  = 5
	DefaultStoreTimeout = 3 * time.Second
)

// Service is the link registry as seen by transports.
type Service interface {
	Create(ctx context.Context, owner auth.Identity, targetURL, customCode string) (Link, error)
	Resolve(ctx context.Context, code string) (string, error)
	List(ctx context.Context, owner auth.Identity) ([]Link, error)
	Delete(ctx context.Context, owner auth.Identity, linkID string) error
}

// Registry allocates codes, resolves them and applies owner-scoped
// mutations. It holds no locks: uniqueness rests on Store.Insert.
type Registry struct {
	store          Store
	codes          codegen.Generator
	maxAttempts    int
	storeTimeout   time.Duration
	allowAnonymous bool
	logger         *slog.Logger
}

// RegistryConfig holds optional settings for NewRegistry.
type RegistryConfig struct {
	CodeGenerator  codegen.Generator
	MaxAttempts    int           // generated-code reservations per Create (default: 5)
	StoreTimeout   time.Duration // per store call (default: 3s)
	AllowAnonymous bool          // permit Create without an identity
	Logger         *slog.Logger
}

// NewRegistry returns a Registry backed by store.
func NewRegistry(store Store, cfg *RegistryConfig) *Registry {
	if cfg == nil {
		cfg = &RegistryConfig{}
	}

	r := &Registry{
		store:          store,
		codes:          cfg.CodeGenerator,
		maxAttempts:    cfg.MaxAttempts,
		storeTimeout:   cfg.StoreTimeout,
		allowAnonymous: cfg.AllowAnonymous,
		logger:         cfg.Logger,
	}
	if r.codes == nil {
		r.codes = codegen.NewDefault()
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.storeTimeout <= 0 {
		r.storeTimeout = DefaultStoreTimeout
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Create stores a new link for owner. A non-blank customCode is reserved
// as-is and fails with errx.Conflict when taken; otherwise codes are
// generated and retried on collision up to the configured attempt limit.
func (r *Registry) Create(ctx context.Context, owner auth.Identity, targetURL, customCode string) (Link, error) {
	const op = "links.registry.Create"

	if owner.IsAnonymous() && !r.allowAnonymous {
		return Link{}, errx.E(op, errx.Unauthorized, errors.New("authentication required"))
	}

	targetURL = strings.TrimSpace(targetURL)
	if err := validateTargetURL(targetURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	if code := strings.TrimSpace(customCode); code != "" {
		if err := ValidateCode(code); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}
		if IsReservedCode(code) {
			return Link{}, errx.E(op, errx.Invalid, fmt.Errorf("%q: %w", code, ErrCodeReserved))
		}

		created, err := r.insert(ctx, Link{Code: code, TargetURL: targetURL, OwnerID: owner})
		if err != nil {
			return Link{}, storeError(op, err)
		}
		return created, nil
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		code, err := r.codes.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, fmt.Errorf("generate code: %w", err))
		}
		if err := ValidateCode(code); err != nil {
			return Link{}, errx.E(op, errx.Internal, fmt.Errorf("generator produced %q: %w", code, err))
		}
		if IsReservedCode(code) {
			r.logger.DebugContext(ctx, "generated code is reserved", "attempt", attempt)
			continue
		}

		created, err := r.insert(ctx, Link{Code: code, TargetURL: targetURL, OwnerID: owner})
		if err == nil {
			return created, nil
		}
		if !errx.Is(err, errx.Conflict) {
			return Link{}, storeError(op, err)
		}

		r.logger.DebugContext(ctx, "generated code collided",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
		)
	}

	r.logger.ErrorContext(ctx, "code allocation exhausted",
		"attempts", r.maxAttempts,
		"code_length", codegen.Length(r.codes),
		"at", time.Now().UTC(),
	)
	return Link{}, errx.E(op, errx.Exhausted,
		fmt.Errorf("no free code after %d attempts", r.maxAttempts))
}

// Resolve returns the target URL for code. Lookup is exact and case-sensitive.
func (r *Registry) Resolve(ctx context.Context, code string) (string, error) {
	const op = "links.registry.Resolve"

	// Nothing that fails validation can have been stored.
	if err := ValidateCode(code); err != nil {
		return "", errx.E(op, errx.NotFound, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	link, err := r.store.FindByCode(ctx, code)
	if err != nil {
		return "", storeError(op, err)
	}
	return link.TargetURL, nil
}

// List returns owner's links, oldest first. An owner without links gets an
// empty slice.
func (r *Registry) List(ctx context.Context, owner auth.Identity) ([]Link, error) {
	const op = "links.registry.List"

	if owner.IsAnonymous() {
		return nil, errx.E(op, errx.Unauthorized, errors.New("authentication required"))
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	found, err := r.store.FindByOwner(ctx, owner)
	if err != nil {
		return nil, storeError(op, err)
	}
	if found == nil {
		found = []Link{}
	}
	return found, nil
}

// Delete removes the link with linkID when owner owns it. Unknown IDs,
// malformed IDs and links owned by someone else all yield errx.NotFound.
func (r *Registry) Delete(ctx context.Context, owner auth.Identity, linkID string) error {
	const op = "links.registry.Delete"

	if owner.IsAnonymous() {
		return errx.E(op, errx.Unauthorized, errors.New("authentication required"))
	}

	id, err := idgen.Parse(strings.TrimSpace(linkID))
	if err != nil {
		return errx.E(op, errx.NotFound, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	if err := r.store.DeleteOwned(ctx, id, owner); err != nil {
		return storeError(op, err)
	}
	return nil
}

func (r *Registry) insert(ctx context.Context, link Link) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return r.store.Insert(ctx, link)
}

// storeError re-tags a store failure under op. Deadlines and errors the
// store did not classify count as the store being unavailable.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errx.E(op, errx.Unavailable, err)
	case errx.KindOf(err) == errx.Unknown:
		return errx.E(op, errx.Unavailable, err)
	default:
		return errx.Wrap(op, err)
	}
}
