package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type VariantRepo struct{ db *sqlx.DB }

func NewVariantRepo(db *sqlx.DB) *VariantRepo { return &VariantRepo{db: db} }

func (r *VariantRepo) FindVariant(ctx context.Context, id string) (domain.Variant, error) {
	return findVariant(ctx, r.db, id)
}

// FindSellable is FindVariant restricted to variants of active products.
// A variant of a deactivated product reads as domain.ErrNotFound.
func (r *VariantRepo) FindSellable(ctx context.Context, id string) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.GetContext(ctx, &v, r.db.Rebind(`
		SELECT v.id,v.product_id,v.size,v.stock_quantity,v.price
		FROM product_variants v JOIN products p ON p.id = v.product_id
		WHERE v.id=? AND p.is_active = ?`), id, true)
	if err != nil {
		return domain.Variant{}, notFound(err)
	}
	return v, nil
}

func findVariant(ctx context.Context, q sqlx.ExtContext, id string) (domain.Variant, error) {
	var v domain.Variant
	err := sqlx.GetContext(ctx, q, &v, q.Rebind(`SELECT id,product_id,size,stock_quantity,price
		FROM product_variants WHERE id=?`), id)
	if err != nil {
		return domain.Variant{}, notFound(err)
	}
	return v, nil
}

// Create adds a variant to an existing product. A size the product already has is a conflict.
func (r *VariantRepo) Create(ctx context.Context, v *domain.Variant) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO product_variants(id,product_id,size,stock_quantity,price) VALUES(?,?,?,?,?)`),
		v.ID, v.ProductID, v.Size, v.StockQuantity, v.Price)
	switch {
	case isForeignKeyViolation(err):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: product %s already has size %s", domain.ErrConflict, v.ProductID, v.Size)
	}
	return err
}

// SetStock overwrites the stock level and returns the updated variant.
func (r *VariantRepo) SetStock(ctx context.Context, id string, qty int) (domain.Variant, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE product_variants SET stock_quantity=? WHERE id=?`), qty, id)
	if err != nil {
		return domain.Variant{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Variant{}, domain.ErrNotFound
	}
	return r.FindVariant(ctx, id)
}

// DecrementStock subtracts n units if at least n are on hand.
func (r *VariantRepo) DecrementStock(ctx context.Context, id string, n int) error {
	return decrementStock(ctx, r.db, id, n)
}

// decrementStock is a single conditional UPDATE, so concurrent callers can never
// drive stock below zero. Zero affected rows means the variant is missing or short.
func decrementStock(ctx context.Context, q sqlx.ExtContext, id string, n int) error {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE product_variants
		SET stock_quantity = stock_quantity - ?
		WHERE id = ? AND stock_quantity >= ?`), n, id, n)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}
	v, err := findVariant(ctx, q, id)
	if err != nil {
		if err == domain.ErrNotFound {
			return &domain.VariantNotFoundError{VariantID: id}
		}
		return err
	}
	return &domain.InsufficientStockError{VariantID: id, Requested: n, Available: v.StockQuantity}
}

func restock(ctx context.Context, q sqlx.ExtContext, id string, n int) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE product_variants SET stock_quantity = stock_quantity + ? WHERE id = ?`), n, id)
	return err
}
