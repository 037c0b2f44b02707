package repos

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

const orderCols = `id,user_id,status,payment_status,payment_method,total_amount,
	shipping_address,billing_address,stock_reserved,created_at,updated_at`

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type CreateOptions struct {
	// DecrementStock takes each line's quantity off its variant inside the transaction.
	DecrementStock bool
	// CartUserID, when set, removes the ordered quantities from that user's cart.
	CartUserID string
}

// CreateAtomic persists the header and every line in one transaction. Any
// failure rolls everything back, including stock changes. Missing ids and
// timestamps on o and its items are filled in.
func (r *OrderRepo) CreateAtomic(ctx context.Context, o *domain.Order, opts CreateOptions) error {
	if len(o.Items) == 0 {
		return domain.Invalid("order has no items")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt
	o.StockReserved = opts.DecrementStock
	o.TotalAmount = domain.ComputeTotal(o.Items)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if opts.DecrementStock {
		// Rows are locked in variant id order so two orders over the same
		// variants cannot wait on each other.
		for _, it := range byVariant(o.Items) {
			if err := decrementStock(ctx, tx, it.VariantID, it.Quantity); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO orders(`+orderCols+`)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`),
		o.ID, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod, o.TotalAmount,
		o.ShippingAddress, o.BillingAddress, o.StockReserved, o.CreatedAt, o.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO order_items(id,order_id,line_no,variant_id,quantity,unit_price)
			VALUES(?,?,?,?,?,?)`), it.ID, o.ID, i+1, it.VariantID, it.Quantity, it.UnitPrice)
		if isForeignKeyViolation(err) {
			return &domain.VariantNotFoundError{VariantID: it.VariantID}
		}
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if opts.CartUserID != "" {
		if err := consumeCart(ctx, tx, opts.CartUserID, o.Items); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
	}
	return tx.Commit()
}

// byVariant returns a copy of items sorted by variant id. items is not modified.
func byVariant(items []domain.OrderItem) []domain.OrderItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.OrderItem) int { return cmp.Compare(a.VariantID, b.VariantID) })
	return out
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, r.db, id)
}

func getOrder(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, q, &o, q.Rebind(`SELECT `+orderCols+` FROM orders WHERE id=?`), id); err != nil {
		return nil, notFound(err)
	}
	o.Items = []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, q, &o.Items, q.Rebind(`
		SELECT id,order_id,variant_id,quantity,unit_price
		FROM order_items WHERE order_id=? ORDER BY line_no`), id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns orders newest first with their items. An empty userID lists every order.
func (r *OrderRepo) List(ctx context.Context, userID string) ([]domain.Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders`
	var args []any
	if userID != "" {
		q += ` WHERE user_id=?`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at DESC, id`

	out := []domain.Order{}
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
	iq, iargs, err := sqlx.In(`SELECT id,order_id,variant_id,quantity,unit_price
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return nil, err
	}
	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(iq), iargs...); err != nil {
		return nil, err
	}
	byOrder := map[string][]domain.OrderItem{}
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range out {
		out[i].Items = byOrder[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []domain.OrderItem{}
		}
	}
	return out, nil
}

// UpdateStatus applies an administrative status and/or payment change. Moving
// to cancelled returns reserved stock in the same transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, upd domain.StatusUpdate) (*domain.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	lock := ""
	if tx.DriverName() == "pgx" {
		lock = " FOR UPDATE"
	}
	var cur struct {
		Status        domain.OrderStatus   `db:"status"`
		PaymentStatus domain.PaymentStatus `db:"payment_status"`
		StockReserved bool                 `db:"stock_reserved"`
	}
	if err := tx.GetContext(ctx, &cur, tx.Rebind(`SELECT status,payment_status,stock_reserved FROM orders WHERE id=?`+lock), id); err != nil {
		return nil, notFound(err)
	}

	next, pay := cur.Status, cur.PaymentStatus
	if upd.Status != nil {
		if err := cur.Status.CanTransition(*upd.Status); err != nil {
			return nil, err
		}
		next = *upd.Status
	} else if upd.PaymentStatus != nil && cur.Status.Terminal() && *upd.PaymentStatus != domain.PaymentRefunded {
		// closed orders only accept refunds
		return nil, fmt.Errorf("%w: order is %s", domain.ErrConflict, cur.Status)
	}
	if upd.PaymentStatus != nil {
		pay = *upd.PaymentStatus
	}

	if next == domain.StatusCancelled && cur.Status != domain.StatusCancelled && cur.StockReserved {
		var items []domain.OrderItem
		if err := tx.SelectContext(ctx, &items, tx.Rebind(`SELECT id,order_id,variant_id,quantity,unit_price
			FROM order_items WHERE order_id=? ORDER BY variant_id`), id); err != nil {
			return nil, err
		}
		for _, it := range items {
			if err := restock(ctx, tx, it.VariantID, it.Quantity); err != nil {
				return nil, fmt.Errorf("restock %s: %w", it.VariantID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE orders SET status=?, payment_status=?, updated_at=? WHERE id=?`),
		next, pay, now(), id); err != nil {
		return nil, err
	}
	o, err := getOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}
