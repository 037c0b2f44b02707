package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

const productCols = `p.id,p.category_id,p.name,p.description,p.sku,p.base_price,p.is_active,p.created_at,p.updated_at`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// List returns products with their variants. A size filter also trims each
// product's variants and drops products with none left.
func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var where []string
	var args []any
	if !f.IncludeInactive {
		where = append(where, "p.is_active = ?")
		args = append(args, true)
	}
	if f.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Size != "" {
		where = append(where, "EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.size = ?)")
		args = append(args, f.Size)
	}
	q := `SELECT ` + productCols + ` FROM products p`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY p.name, p.id"

	out := []domain.Product{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	vq, vargs, err := sqlx.In(`SELECT id,product_id,size,stock_quantity,price FROM product_variants
		WHERE product_id IN (?) ORDER BY product_id, size`, ids)
	if err != nil {
		return nil, err
	}
	var vars []domain.Variant
	if err := r.db.SelectContext(ctx, &vars, r.db.Rebind(vq), vargs...); err != nil {
		return nil, err
	}
	byProduct := map[string][]domain.Variant{}
	for _, v := range vars {
		if f.Size != "" && v.Size != f.Size {
			continue
		}
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	images, err := r.images(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Variants = byProduct[out[i].ID]
		if out[i].Variants == nil {
			out[i].Variants = []domain.Variant{}
		}
		out[i].Images = images[out[i].ID]
		if out[i].Images == nil {
			out[i].Images = []domain.ProductImage{}
		}
	}
	return out, nil
}

// images returns the pictures of the given products keyed by product id.
func (r *ProductRepo) images(ctx context.Context, productIDs ...string) (map[string][]domain.ProductImage, error) {
	q, args, err := sqlx.In(`SELECT id,product_id,url,sort_order FROM product_images
		WHERE product_id IN (?) ORDER BY product_id, sort_order, id`, productIDs)
	if err != nil {
		return nil, err
	}
	var rows []domain.ProductImage
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.ProductImage, len(productIDs))
	for _, img := range rows {
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products p WHERE p.id=?`), id); err != nil {
		return nil, notFound(err)
	}
	p.Variants = []domain.Variant{}
	err := r.db.SelectContext(ctx, &p.Variants, r.db.Rebind(`SELECT id,product_id,size,stock_quantity,price
		FROM product_variants WHERE product_id=? ORDER BY size`), id)
	if err != nil {
		return nil, err
	}
	images, err := r.images(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = images[id]
	if p.Images == nil {
		p.Images = []domain.ProductImage{}
	}
	return &p, nil
}

// Create inserts the product header and its images in one transaction. An
// unknown category is an invalid request; a taken SKU is a conflict.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO products(id,category_id,name,description,sku,base_price,is_active,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`),
		p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.BasePrice, p.Active, p.CreatedAt, p.UpdatedAt)
	switch {
	case isForeignKeyViolation(err):
		return domain.Invalid("unknown category %q", p.CategoryID)
	case isUniqueViolation(err) && p.SKU != nil:
		return fmt.Errorf("%w: sku %s is taken", domain.ErrConflict, *p.SKU)
	case err != nil:
		return err
	}
	for i := range p.Images {
		img := &p.Images[i]
		img.ProductID = p.ID
		if err := insertImage(ctx, tx, img); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if p.Images == nil {
		p.Images = []domain.ProductImage{}
	}
	if p.Variants == nil {
		p.Variants = []domain.Variant{}
	}
	return nil
}

// AddImage attaches a picture to an existing product.
func (r *ProductRepo) AddImage(ctx context.Context, img *domain.ProductImage) error {
	err := insertImage(ctx, r.db, img)
	if isForeignKeyViolation(err) {
		return domain.ErrNotFound
	}
	return err
}

func insertImage(ctx context.Context, q sqlx.ExtContext, img *domain.ProductImage) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	_, err := q.ExecContext(ctx, q.Rebind(`INSERT INTO product_images(id,product_id,url,sort_order) VALUES(?,?,?,?)`),
		img.ID, img.ProductID, img.URL, img.SortOrder)
	return err
}

func (r *ProductRepo) Update(ctx context.Context, id string, p domain.ProductPatch) (*domain.Product, error) {
	sets := []string{"updated_at=?"}
	args := []any{now()}
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if p.CategoryID != nil {
		sets = append(sets, "category_id=?")
		args = append(args, *p.CategoryID)
	}
	if p.BasePrice != nil {
		sets = append(sets, "base_price=?")
		args = append(args, *p.BasePrice)
	}
	if p.Active != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *p.Active)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET `+strings.Join(sets, ",")+` WHERE id=?`), args...)
	if isForeignKeyViolation(err) {
		return nil, domain.Invalid("unknown category %q", *p.CategoryID)
	}
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a product, its variants and any cart rows pointing at them.
// Products whose variants appear on an order are kept and domain.ErrConflict is returned.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM products WHERE id=?`), id); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	var ordered int
	if err := tx.GetContext(ctx, &ordered, tx.Rebind(`
		SELECT COUNT(*) FROM order_items oi
		JOIN product_variants v ON v.id = oi.variant_id
		WHERE v.product_id = ?`), id); err != nil {
		return err
	}
	if ordered > 0 {
		return fmt.Errorf("%w: product %s has been ordered; deactivate it instead", domain.ErrConflict, id)
	}

	for _, q := range []string{
		`DELETE FROM shopping_carts WHERE variant_id IN (SELECT id FROM product_variants WHERE product_id=?)`,
		`DELETE FROM product_variants WHERE product_id=?`,
		`DELETE FROM product_images WHERE product_id=?`,
		`DELETE FROM products WHERE id=?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
