package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type recorder struct {
	mu     sync.Mutex
	events []events.OrderPlaced
	fail   bool
}

func (r *recorder) PublishOrderPlaced(_ context.Context, e events.OrderPlaced) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker down")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	db       *sqlx.DB
	variants *repos.VariantRepo
	orders   *repos.OrderRepo
	carts    *repos.CartRepo
	users    *repos.UserRepo
	pub      *recorder
	svc      *services.OrderService
	auth     *services.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, repos.Seed(context.Background(), db, bcrypt.MinCost))
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:       db,
		variants: repos.NewVariantRepo(db),
		orders:   repos.NewOrderRepo(db),
		carts:    repos.NewCartRepo(db),
		users:    repos.NewUserRepo(db),
		pub:      &recorder{},
	}
	f.svc = services.NewOrderService(f.variants, f.orders, f.carts, f.pub, true)
	f.auth = services.NewAuthService(f.users, auth.NewTokenIssuer("test-secret", "storefront", time.Hour), auth.Hasher{Cost: bcrypt.MinCost})
	return f
}

// addVariant creates a variant on a seeded product with the given stock and price.
func (f *fixture) addVariant(t *testing.T, id string, stock int, price string) {
	t.Helper()
	v := &domain.Variant{ID: id, ProductID: "tee-classic", Size: id, StockQuantity: stock, Price: decimal.RequireFromString(price)}
	require.NoError(t, f.variants.Create(context.Background(), v))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	v, err := f.variants.FindVariant(context.Background(), id)
	require.NoError(t, err)
	return v.StockQuantity
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
