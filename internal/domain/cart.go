package domain

import "github.com/shopspring/decimal"

// CartEntry is one (user, variant) row with the variant's current price.
type CartEntry struct {
	VariantID   string          `db:"variant_id" json:"variantId"`
	ProductID   string          `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Size        string          `db:"size" json:"size"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

func (e CartEntry) Subtotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

type CartView struct {
	Entries []CartEntry     `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}
