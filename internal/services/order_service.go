package services

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

const publishTimeout = 3 * time.Second

// VariantFinder resolves variants that may currently be sold.
type VariantFinder interface {
	FindSellable(ctx context.Context, id string) (domain.Variant, error)
}

type OrderStore interface {
	CreateAtomic(ctx context.Context, o *domain.Order, opts repos.CreateOptions) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, upd domain.StatusUpdate) (*domain.Order, error)
}

type CartReader interface {
	Entries(ctx context.Context, userID string) ([]domain.CartEntry, error)
}

type OrderService struct {
	Variants VariantFinder
	Orders   OrderStore
	Carts    CartReader
	Events   events.Publisher
	// TrackStock rejects lines that exceed on-hand stock and decrements stock on commit.
	TrackStock bool
}

func NewOrderService(variants VariantFinder, orders OrderStore, carts CartReader, pub events.Publisher, trackStock bool) *OrderService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &OrderService{Variants: variants, Orders: orders, Carts: carts, Events: pub, TrackStock: trackStock}
}

type OrderLine struct {
	VariantID string
	Quantity  int
}

// OrderDetails are the caller-supplied fields that are not priced.
type OrderDetails struct {
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
}

type PlaceOrderInput struct {
	UserID string
	Lines  []OrderLine
	OrderDetails
}

// PlaceOrder prices the requested lines from the catalog and persists the order
// atomically. Either the whole order is stored or nothing is.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	return s.place(ctx, in, "")
}

// Checkout places an order for everything in the user's cart and takes the
// ordered quantities out of the cart in the same transaction.
func (s *OrderService) Checkout(ctx context.Context, userID string, d OrderDetails) (*domain.Order, error) {
	entries, err := s.Carts.Entries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.Invalid("cart is empty")
	}
	lines := make([]OrderLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, OrderLine{VariantID: e.VariantID, Quantity: e.Quantity})
	}
	return s.place(ctx, PlaceOrderInput{UserID: userID, Lines: lines, OrderDetails: d}, userID)
}

func (s *OrderService) place(ctx context.Context, in PlaceOrderInput, cartUserID string) (*domain.Order, error) {
	if in.UserID == "" {
		return nil, domain.Invalid("missing user")
	}
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		v, err := s.Variants.FindSellable(ctx, l.VariantID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.VariantNotFoundError{VariantID: l.VariantID}
		}
		if err != nil {
			return nil, err
		}
		if s.TrackStock && v.StockQuantity < l.Quantity {
			return nil, &domain.InsufficientStockError{VariantID: v.ID, Requested: l.Quantity, Available: v.StockQuantity}
		}
		items = append(items, domain.OrderItem{VariantID: v.ID, Quantity: l.Quantity, UnitPrice: v.Price})
	}

	o := &domain.Order{
		UserID:          in.UserID,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		TotalAmount:     domain.ComputeTotal(items),
		Items:           items,
	}
	opts := repos.CreateOptions{DecrementStock: s.TrackStock, CartUserID: cartUserID}
	if err := s.Orders.CreateAtomic(ctx, o, opts); err != nil {
		return nil, err
	}

	s.publishPlaced(ctx, o)
	return o, nil
}

// publishPlaced runs after commit; a broker failure never undoes the order.
func (s *OrderService) publishPlaced(ctx context.Context, o *domain.Order) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.PublishOrderPlaced(pctx, events.NewOrderPlaced(o)); err != nil {
		applog.Error(nil, "order.event.fail", err, map[string]any{"order_id": o.ID})
	}
}

// mergeLines rejects empty or non-positive lines and folds repeated variants
// into one line, keeping first-seen order.
func mergeLines(in []OrderLine) ([]OrderLine, error) {
	if len(in) == 0 {
		return nil, domain.Invalid("order needs at least one item")
	}
	idx := make(map[string]int, len(in))
	out := make([]OrderLine, 0, len(in))
	for _, l := range in {
		if l.VariantID == "" {
			return nil, domain.Invalid("item is missing variantId")
		}
		if l.Quantity <= 0 {
			return nil, domain.Invalid("quantity for %s must be positive", l.VariantID)
		}
		if i, ok := idx[l.VariantID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.VariantID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// Get returns the order if viewer owns it or may read all orders. Other
// callers get domain.ErrNotFound so order ids do not leak.
func (s *OrderService) Get(ctx context.Context, id string, viewer domain.Identity, readAll bool) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != viewer.UserID && !readAll {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// List returns the viewer's orders, or every order when readAll is set.
func (s *OrderService) List(ctx context.Context, viewer domain.Identity, readAll bool) ([]domain.Order, error) {
	if readAll {
		return s.Orders.List(ctx, "")
	}
	return s.Orders.List(ctx, viewer.UserID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, upd domain.StatusUpdate) (*domain.Order, error) {
	if upd.Status == nil && upd.PaymentStatus == nil {
		return nil, domain.Invalid("status or paymentStatus is required")
	}
	return s.Orders.UpdateStatus(ctx, id, upd)
}
