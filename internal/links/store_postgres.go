package links

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/errx"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	insertLinkSQL = `
INSERT INTO links (id, code, target_url, owner_id, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code) DO NOTHING
RETURNING id`

	findLinkByCodeSQL = `
SELECT id, code, target_url, owner_id, created_at
FROM links
WHERE code = $1`

	findLinksByOwnerSQL = `
SELECT id, code, target_url, owner_id, created_at
FROM links
WHERE owner_id = $1
ORDER BY created_at, id`

	deleteOwnedLinkSQL = `
DELETE FROM links
WHERE id = $1 AND owner_id = $2`
)

// pgLink is the row shape of the links table.
type pgLink struct {
	ID        uuid.UUID          `db:"id"`
	Code      string             `db:"code"`
	TargetURL string             `db:"target_url"`
	OwnerID   pgtype.Text        `db:"owner_id"`
	CreatedAt pgtype.Timestamptz `db:"created_at"`
}

func (row pgLink) toDomain() (Link, error) {
	if !row.CreatedAt.Valid {
		return Link{}, fmt.Errorf("created_at unexpectedly NULL for link %s", row.ID)
	}
	return Link{
		ID:        row.ID,
		Code:      row.Code,
		TargetURL: row.TargetURL,
		OwnerID:   auth.Identity(row.OwnerID.String),
		CreatedAt: row.CreatedAt.Time.UTC(),
	}, nil
}

func ownerParam(owner auth.Identity) pgtype.Text {
	return pgtype.Text{String: owner.String(), Valid: !owner.IsAnonymous()}
}

// PostgresStore stores links in PostgreSQL. Code uniqueness is the
// links_code_unique constraint.
type PostgresStore struct {
	db    DBTX
	stamp stamper
}

// NewPostgresStore returns a Store using db, typically a *pgxpool.Pool.
func NewPostgresStore(db DBTX, cfg *StoreConfig) *PostgresStore {
	return &PostgresStore{db: db, stamp: newStamper(cfg)}
}

func (s *PostgresStore) Insert(ctx context.Context, link Link) (Link, error) {
	const op = "links.postgres.Insert"

	link, err := s.stamp.stamp(link)
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, fmt.Errorf("assign id: %w", err))
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx, insertLinkSQL,
		link.ID, link.Code, link.TargetURL, ownerParam(link.OwnerID), link.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT DO NOTHING returned no row: the code is taken.
		return Link{}, errx.E(op, errx.Conflict, ErrCodeTaken)
	}
	if err != nil {
		return Link{}, mapPostgresError(op, err)
	}

	// The row is committed; everything else in link is what we wrote.
	link.ID = id
	return link, nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (Link, error) {
	const op = "links.postgres.FindByCode"

	rows, err := s.db.Query(ctx, findLinkByCodeSQL, code)
	if err != nil {
		return Link{}, mapPostgresError(op, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[pgLink])
	if err != nil {
		return Link{}, mapPostgresError(op, err)
	}

	link, err := row.toDomain()
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (s *PostgresStore) FindByOwner(ctx context.Context, owner auth.Identity) ([]Link, error) {
	const op = "links.postgres.FindByOwner"

	rows, err := s.db.Query(ctx, findLinksByOwnerSQL, ownerParam(owner))
	if err != nil {
		return nil, mapPostgresError(op, err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[pgLink])
	if err != nil {
		return nil, mapPostgresError(op, err)
	}

	out := make([]Link, 0, len(found))
	for _, row := range found {
		link, err := row.toDomain()
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		out = append(out, link)
	}
	return out, nil
}

func (s *PostgresStore) DeleteOwned(ctx context.Context, id uuid.UUID, owner auth.Identity) error {
	const op = "links.postgres.DeleteOwned"

	if owner.IsAnonymous() {
		return errx.E(op, errx.NotFound, ErrLinkNotFound)
	}

	tag, err := s.db.Exec(ctx, deleteOwnedLinkSQL, id, ownerParam(owner))
	if err != nil {
		return mapPostgresError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return errx.E(op, errx.NotFound, ErrLinkNotFound)
	}
	return nil
}

func isCodeUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == "links_code_unique"
}

func mapPostgresError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)
	case isCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
