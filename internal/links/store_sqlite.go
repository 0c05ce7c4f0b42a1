package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/errx"
)

// sqliteLink is the GORM model for the links table.
type sqliteLink struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Code      string    `gorm:"size:32;not null;uniqueIndex:links_code_unique"`
	TargetURL string    `gorm:"size:2048;not null"`
	OwnerID   *string   `gorm:"size:255;index:links_owner_created,priority:1"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index:links_owner_created,priority:2"`
}

func (sqliteLink) TableName() string { return "links" }

func toSQLiteLink(link Link) sqliteLink {
	row := sqliteLink{
		ID:        link.ID.String(),
		Code:      link.Code,
		TargetURL: link.TargetURL,
		CreatedAt: link.CreatedAt,
	}
	if !link.OwnerID.IsAnonymous() {
		owner := link.OwnerID.String()
		row.OwnerID = &owner
	}
	return row
}

func (row sqliteLink) toDomain() (Link, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return Link{}, fmt.Errorf("stored link id %q: %w", row.ID, err)
	}
	link := Link{
		ID:        id,
		Code:      row.Code,
		TargetURL: row.TargetURL,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.OwnerID != nil {
		link.OwnerID = auth.Identity(*row.OwnerID)
	}
	return link, nil
}

// MigrateSQLite creates or updates the links table.
func MigrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(&sqliteLink{}); err != nil {
		return fmt.Errorf("migrate links: %w", err)
	}
	return nil
}

// SQLiteStore stores links in SQLite through GORM.
type SQLiteStore struct {
	db    *gorm.DB
	stamp stamper
}

// NewSQLiteStore returns a Store on db. The schema must already exist; see
// MigrateSQLite.
func NewSQLiteStore(db *gorm.DB, cfg *StoreConfig) *SQLiteStore {
	return &SQLiteStore{db: db, stamp: newStamper(cfg)}
}

func (s *SQLiteStore) Insert(ctx context.Context, link Link) (Link, error) {
	const op = "links.sqlite.Insert"

	link, err := s.stamp.stamp(link)
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, fmt.Errorf("assign id: %w", err))
	}

	row := toSQLiteLink(link)
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return Link{}, mapSQLiteError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return Link{}, errx.E(op, errx.Conflict, ErrCodeTaken)
	}
	return link, nil
}

func (s *SQLiteStore) FindByCode(ctx context.Context, code string) (Link, error) {
	const op = "links.sqlite.FindByCode"

	var row sqliteLink
	if err := s.db.WithContext(ctx).Where("code = ?", code).Take(&row).Error; err != nil {
		return Link{}, mapSQLiteError(op, err)
	}

	link, err := row.toDomain()
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (s *SQLiteStore) FindByOwner(ctx context.Context, owner auth.Identity) ([]Link, error) {
	const op = "links.sqlite.FindByOwner"

	if owner.IsAnonymous() {
		return []Link{}, nil
	}

	var rows []sqliteLink
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", owner.String()).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, mapSQLiteError(op, err)
	}

	out := make([]Link, 0, len(rows))
	for _, row := range rows {
		link, err := row.toDomain()
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		out = append(out, link)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteOwned(ctx context.Context, id uuid.UUID, owner auth.Identity) error {
	const op = "links.sqlite.DeleteOwned"

	if owner.IsAnonymous() {
		return errx.E(op, errx.NotFound, ErrLinkNotFound)
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id.String(), owner.String()).
		Delete(&sqliteLink{})
	if res.Error != nil {
		return mapSQLiteError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return errx.E(op, errx.NotFound, ErrLinkNotFound)
	}
	return nil
}

func mapSQLiteError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errx.E(op, errx.NotFound, err)
	case isCodeUniqueFailure(err):
		return errx.E(op, errx.Conflict, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

// isCodeUniqueFailure reports a uniqueness failure on links.code only. A
// duplicate primary key is not a code conflict.
func isCodeUniqueFailure(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: links.code")
}
