package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	applog "storefront/internal/log"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

// Seed inserts demo categories, products, variants and accounts. Safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB, bcryptCost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcryptCost)
	if err != nil {
		return err
	}
	ts := now()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(q string, args ...any) {
		if err != nil {
			return
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(q), args...)
	}

	for _, c := range [][2]string{
		{"tees", "T-Shirts"},
		{"hoodies", "Hoodies"},
		{"shoes", "Shoes"},
	} {
		exec(`INSERT INTO categories(id,name,created_at) VALUES(?,?,?) ON CONFLICT(id) DO NOTHING`, c[0], c[1], ts)
	}

	type p struct{ id, cat, name, desc, sku, price string }
	for _, x := range []p{
		{"tee-classic", "tees", "Classic Crew Tee", "Heavyweight cotton crew neck.", "TEE-CL-001", "19.99"},
		{"hoodie-zip", "hoodies", "Zip Hoodie", "Brushed fleece full-zip hoodie.", "HOO-ZP-001", "54.00"},
		{"runner-01", "shoes", "Trail Runner", "Lightweight trail running shoe.", "SHO-TR-001", "89.50"},
	} {
		exec(`INSERT INTO products(id,category_id,name,description,sku,base_price,is_active,created_at,updated_at)
		      VALUES(?,?,?,?,?,?,?,?,?) ON CONFLICT(id) DO NOTHING`,
			x.id, x.cat, x.name, x.desc, x.sku, x.price, true, ts, ts)
		exec(`INSERT INTO product_images(id,product_id,url,sort_order) VALUES(?,?,?,?) ON CONFLICT(id) DO NOTHING`,
			x.id+"-img-1", x.id, "https://cdn.storefront.test/products/"+x.id+".jpg", 0)
	}

	type v struct {
		id, product, size string
		stock             int
		price             string
	}
	for _, x := range []v{
		{"tee-classic-s", "tee-classic", "S", 25, "19.99"},
		{"tee-classic-m", "tee-classic", "M", 40, "19.99"},
		{"tee-classic-l", "tee-classic", "L", 10, "21.99"},
		{"hoodie-zip-m", "hoodie-zip", "M", 12, "54.00"},
		{"hoodie-zip-xl", "hoodie-zip", "XL", 0, "58.00"},
		{"runner-01-42", "runner-01", "42", 6, "89.50"},
		{"runner-01-44", "runner-01", "44", 1, "89.50"},
	} {
		exec(`INSERT INTO product_variants(id,product_id,size,stock_quantity,price)
		      VALUES(?,?,?,?,?) ON CONFLICT(id) DO NOTHING`,
			x.id, x.product, x.size, x.stock, x.price)
	}

	type u struct{ id, email, first, last, role string }
	for _, x := range []u{
		{"u-alice", "alice@storefront.test", "Alice", "Ng", "customer"},
		{"u-bob", "bob@storefront.test", "Bob", "Ortiz", "customer"},
		{"u-vera", "vera@storefront.test", "Vera", "Lind", "vendor"},
		{"u-admin", "admin@storefront.test", "Ada", "Admin", "admin"},
	} {
		exec(`INSERT INTO users(id,email,password_hash,first_name,last_name,role,is_active,created_at,updated_at)
		      VALUES(?,?,?,?,?,?,?,?,?) ON CONFLICT(id) DO NOTHING`,
			x.id, x.email, string(hash), x.first, x.last, x.role, true, ts, ts)
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	applog.Info(nil, "seed.done", map[string]any{"driver": db.DriverName()})
	return nil
}
