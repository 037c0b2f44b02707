package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	CategoryID  string          `db:"category_id" json:"categoryId"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	SKU         *string         `db:"sku" json:"sku,omitempty"`
	BasePrice   decimal.Decimal `db:"base_price" json:"basePrice"`
	Active      bool            `db:"is_active" json:"isActive"`
	CreatedAt   string          `db:"created_at" json:"createdAt"`
	UpdatedAt   string          `db:"updated_at" json:"updatedAt"`

	Images   []ProductImage `db:"-" json:"images"`
	Variants []Variant      `db:"-" json:"variants"`
}

// ProductImage is a product picture; lower SortOrder is shown first.
type ProductImage struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"productId"`
	URL       string `db:"url" json:"url"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
}

// Variant is the purchasable unit: a product in one size with its own price and stock.
type Variant struct {
	ID            string          `db:"id" json:"id"`
	ProductID     string          `db:"product_id" json:"productId"`
	Size          string          `db:"size" json:"size"`
	StockQuantity int             `db:"stock_quantity" json:"stockQuantity"`
	Price         decimal.Decimal `db:"price" json:"price"`
}

// ProductFilter narrows catalog listings. Empty fields do not filter.
type ProductFilter struct {
	CategoryID      string
	Size            string
	IncludeInactive bool
}

// ProductPatch carries a partial update; nil fields are left as they are.
type ProductPatch struct {
	Name        *string
	Description *string
	CategoryID  *string
	BasePrice   *decimal.Decimal
	Active      *bool
}
