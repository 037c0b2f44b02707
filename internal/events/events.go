// Package events publishes domain events after their transaction commits.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlaced) error
	Close() error
}

type OrderLine struct {
	VariantID string          `json:"variantId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderPlaced struct {
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Lines       []OrderLine     `json:"lines"`
	PlacedAt    time.Time       `json:"placedAt"`
}

func NewOrderPlaced(o *domain.Order) OrderPlaced {
	e := OrderPlaced{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Lines:       make([]OrderLine, 0, len(o.Items)),
		PlacedAt:    time.Now().UTC(),
	}
	for _, it := range o.Items {
		e.Lines = append(e.Lines, OrderLine{VariantID: it.VariantID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return e
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (Noop) Close() error { return nil }
