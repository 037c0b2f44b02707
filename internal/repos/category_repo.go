package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `SELECT id,name,created_at FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT id,name,created_at FROM categories WHERE id=?`), id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Create inserts c; a name already in use (case-insensitive) yields domain.ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	c.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO categories(id,name,created_at) VALUES(?,?,?)`), c.ID, c.Name, c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}
