package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Add inserts the (user, variant) row or increments its quantity.
func (r *CartRepo) Add(ctx context.Context, userID, variantID string, qty int) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO shopping_carts(user_id,variant_id,quantity,created_at,updated_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(user_id,variant_id) DO UPDATE
		SET quantity = shopping_carts.quantity + excluded.quantity, updated_at = excluded.updated_at
	`), userID, variantID, qty, ts, ts)
	if isForeignKeyViolation(err) {
		return &domain.VariantNotFoundError{VariantID: variantID}
	}
	return err
}

// Entries lists the cart with each variant's current price.
func (r *CartRepo) Entries(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	out := []domain.CartEntry{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT sc.variant_id, v.product_id, p.name AS product_name, v.size, sc.quantity, v.price AS unit_price
	  FROM shopping_carts sc
	  JOIN product_variants v ON v.id = sc.variant_id
	  JOIN products p ON p.id = v.product_id
	  WHERE sc.user_id = ?
	  ORDER BY sc.created_at, sc.variant_id
	`), userID)
	return out, err
}

func (r *CartRepo) View(ctx context.Context, userID string) (domain.CartView, error) {
	entries, err := r.Entries(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}
	cv := domain.CartView{Entries: entries}
	for _, e := range entries {
		cv.Total = cv.Total.Add(e.Subtotal())
	}
	return cv, nil
}

func (r *CartRepo) Remove(ctx context.Context, userID, variantID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM shopping_carts WHERE user_id=? AND variant_id=?`), userID, variantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// consumeCart takes the checked-out quantities off the user's cart. Rows whose
// quantity grew after checkout started keep the difference.
func consumeCart(ctx context.Context, tx *sqlx.Tx, userID string, items []domain.OrderItem) error {
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			DELETE FROM shopping_carts WHERE user_id=? AND variant_id=? AND quantity<=?`),
			userID, it.VariantID, it.Quantity); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE shopping_carts SET quantity = quantity - ?, updated_at = ?
			WHERE user_id=? AND variant_id=? AND quantity > ?`),
			it.Quantity, now(), userID, it.VariantID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
