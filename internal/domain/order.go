package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch ps := PaymentStatus(s); ps {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return ps, true
	}
	return "", false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool { return len(transitions[s]) == 0 }

// CanTransition reports whether an order may move from s to next.
// Setting the current status again is a no-op and allowed unless terminal.
func (s OrderStatus) CanTransition(next OrderStatus) error {
	if s.Terminal() {
		return fmt.Errorf("%w: order is %s", ErrConflict, s)
	}
	if s == next {
		return nil
	}
	for _, n := range transitions[s] {
		if n == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, s, next)
}

type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"userId"`
	Status          OrderStatus     `db:"status" json:"status"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"paymentStatus"`
	PaymentMethod   string          `db:"payment_method" json:"paymentMethod"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"totalAmount"`
	ShippingAddress string          `db:"shipping_address" json:"shippingAddress"`
	BillingAddress  string          `db:"billing_address" json:"billingAddress"`
	StockReserved   bool            `db:"stock_reserved" json:"-"`
	CreatedAt       string          `db:"created_at" json:"createdAt"`
	UpdatedAt       string          `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items"`
}

// OrderItem is an immutable order line. UnitPrice is the variant price at placement time.
type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"orderId"`
	VariantID string          `db:"variant_id" json:"variantId"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ComputeTotal sums quantity times unit price over the items.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// StatusUpdate is an administrative change to an order; nil fields are left as they are.
type StatusUpdate struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
}
