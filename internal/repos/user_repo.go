package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

const userCols = `id,email,first_name,last_name,password_hash,role,is_active,created_at,updated_at`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE id=?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts u, filling timestamps. A duplicate email yields domain.ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.TrimSpace(u.Email)
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO users(id,email,password_hash,first_name,last_name,role,is_active,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`),
		u.ID, u.Email, u.Hash, u.FirstName, u.LastName, u.Role, u.Active, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrEmailExists
	}
	return err
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users ORDER BY created_at, id`)
	return out, err
}

func (r *UserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	sets := []string{"updated_at=?"}
	args := []any{now()}
	if p.FirstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *p.FirstName)
	}
	if p.LastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *p.LastName)
	}
	if p.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, *p.Role)
	}
	if p.Active != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *p.Active)
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET `+strings.Join(sets, ",")+` WHERE id=?`), args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.ByID(ctx, id)
}

// Deactivate keeps the row (orders reference it) and blocks further authentication.
// Cart rows are dropped in the same transaction.
func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET is_active=?, updated_at=? WHERE id=?`), false, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM shopping_carts WHERE user_id=?`), id); err != nil {
		return err
	}
	return tx.Commit()
}
