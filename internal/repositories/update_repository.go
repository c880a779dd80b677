package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"boardhub/internal/models"
)

var ErrUpdateNotFound = errors.New("update not found")

const updateColumns = `id::text AS id, title, content_md, created_by, created_at`

// UpdateRepository stores board announcements.
type UpdateRepository interface {
	ListUpdates(ctx context.Context) ([]models.Update, error)
	CreateUpdate(ctx context.Context, title, contentMD, createdBy string) (models.Update, error)
	DeleteUpdate(ctx context.Context, updateID int64) error
}

// UpdateRepo is a sqlx implementation of UpdateRepository.
type UpdateRepo struct {
	db *sqlx.DB
}

// NewUpdateRepo constructs an UpdateRepo.
func NewUpdateRepo(db *sqlx.DB) *UpdateRepo {
	return &UpdateRepo{db: db}
}

// ListUpdates returns every update, most recent first.
func (r *UpdateRepo) ListUpdates(ctx context.Context) ([]models.Update, error) {
	updates := []models.Update{}
	err := r.db.SelectContext(ctx, &updates, `SELECT `+updateColumns+` FROM updates ORDER BY created_at DESC, id DESC`)
	return updates, err
}

// CreateUpdate inserts an update authored by createdBy.
func (r *UpdateRepo) CreateUpdate(ctx context.Context, title, contentMD, createdBy string) (models.Update, error) {
	var update models.Update
	err := r.db.QueryRowxContext(ctx, `INSERT INTO updates (title, content_md, created_by) VALUES ($1, $2, $3) RETURNING `+updateColumns, title, contentMD, createdBy).
		StructScan(&update)
	return update, err
}

// DeleteUpdate removes an update by id.
func (r *UpdateRepo) DeleteUpdate(ctx context.Context, updateID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM updates WHERE id=$1`, updateID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUpdateNotFound
	}
	return nil
}
