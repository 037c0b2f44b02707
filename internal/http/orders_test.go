package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/http/handlers"
)

type line map[string]any

func placeBody(items ...line) map[string]any {
	return map[string]any{
		"items":           items,
		"shippingAddress": "1 Main St",
		"paymentMethod":   "card",
	}
}

func decodeOrder(t *testing.T, body []byte) domain.Order {
	t.Helper()
	var o domain.Order
	require.NoError(t, json.Unmarshal(body, &o), string(body))
	return o
}

func TestPlaceOrderPricesFromCatalog(t *testing.T) {
	a := newTestApp(t)
	alice := a.token(t, "u-alice")

	body := placeBody(
		line{"variantId": "tee-classic-s", "quantity": 2, "unitPrice": "0.01"},
		line{"variantId": "runner-01-42", "quantity": 1},
	)
	body["totalAmount"] = "1.00"
	resp, raw := a.do(t, "POST", "/orders", alice, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	o := decodeOrder(t, raw)
	assert.Equal(t, "u-alice", o.UserID)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, "1 Main St", o.BillingAddress, "billing defaults to shipping")
	require.Len(t, o.Items, 2)
	assert.Equal(t, "tee-classic-s", o.Items[0].VariantID)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("129.48")), o.TotalAmount.String())
	assert.True(t, o.TotalAmount.Equal(domain.ComputeTotal(o.Items)))

	assert.Equal(t, 23, a.stock(t, "tee-classic-s"))
	assert.Equal(t, 5, a.stock(t, "runner-01-42"))

	_, first := a.do(t, "GET", "/orders/"+o.ID, alice, nil)
	resp, second := a.do(t, "GET", "/orders/"+o.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, string(first), string(second))
	assert.Len(t, decodeOrder(t, second).Items, 2)

	resp, raw = a.do(t, "GET", "/orders/"+o.ID, a.token(t, "u-bob"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeErr(t, raw).Error)

	resp, _ = a.do(t, "GET", "/orders/"+o.ID, a.token(t, "u-admin"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlaceOrderUnknownVariantWritesNothing(t *testing.T) {
	a := newTestApp(t)
	resp, raw := a.do(t, "POST", "/orders", a.token(t, "u-alice"), placeBody(
		line{"variantId": "tee-classic-m", "quantity": 1},
		line{"variantId": "no-such-variant", "quantity": 1},
	))
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
	e := decodeErr(t, raw)
	assert.Equal(t, "variant_not_found", e.Error)
	assert.Equal(t, "no-such-variant", e.VariantID)

	assert.Zero(t, a.count(t, "orders"))
	assert.Zero(t, a.count(t, "order_items"))
	assert.Equal(t, 40, a.stock(t, "tee-classic-m"))
}

func TestInactiveProductCannotBeBought(t *testing.T) {
	a := newTestApp(t)
	alice := a.token(t, "u-alice")

	resp, _ := a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "tee-classic-s", "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, raw := a.do(t, "PUT", "/products/tee-classic", a.token(t, "u-vera"), map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = a.do(t, "POST", "/orders", alice, placeBody(line{"variantId": "tee-classic-m", "quantity": 1}))
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
	e := decodeErr(t, raw)
	assert.Equal(t, "variant_not_found", e.Error)
	assert.Equal(t, "tee-classic-m", e.VariantID)

	resp, raw = a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "tee-classic-l", "quantity": 1})
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
	assert.Equal(t, "variant_not_found", decodeErr(t, raw).Error)

	// a line carted before deactivation cannot be checked out either
	resp, raw = a.do(t, "POST", "/cart/checkout", alice, map[string]any{"shippingAddress": "9 Elm Rd"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
	assert.Equal(t, "tee-classic-s", decodeErr(t, raw).VariantID)

	assert.Zero(t, a.count(t, "orders"))
	assert.Equal(t, 40, a.stock(t, "tee-classic-m"))
	assert.Equal(t, 25, a.stock(t, "tee-classic-s"))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	a := newTestApp(t)
	alice := a.token(t, "u-alice")

	resp, raw := a.do(t, "POST", "/orders", alice, placeBody(
		line{"variantId": "tee-classic-s", "quantity": 3},
		line{"variantId": "runner-01-44", "quantity": 2},
	))
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))
	e := decodeErr(t, raw)
	assert.Equal(t, "insufficient_stock", e.Error)
	assert.Equal(t, "runner-01-44", e.VariantID)
	assert.Equal(t, 25, a.stock(t, "tee-classic-s"))
	assert.Equal(t, 1, a.stock(t, "runner-01-44"))
	assert.Zero(t, a.count(t, "orders"))

	resp, _ = a.do(t, "POST", "/orders", alice, placeBody(line{"variantId": "hoodie-zip-xl", "quantity": 1}))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPlaceOrderWithoutStockTracking(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config, _ *handlers.Options) { cfg.TrackStock = false })
	resp, raw := a.do(t, "POST", "/orders", a.token(t, "u-alice"), placeBody(line{"variantId": "hoodie-zip-xl", "quantity": 3}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, 0, a.stock(t, "hoodie-zip-xl"))
}

func TestQuantityCapAppliesPerRequestLine(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config, _ *handlers.Options) { cfg.TrackStock = false })
	alice := a.token(t, "u-alice")

	resp, raw := a.do(t, "POST", "/orders", alice, placeBody(line{"variantId": "tee-classic-m", "quantity": 51}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	resp, raw = a.do(t, "POST", "/orders", alice, placeBody(
		line{"variantId": "tee-classic-m", "quantity": 30},
		line{"variantId": "tee-classic-m", "quantity": 30},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	o := decodeOrder(t, raw)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 60, o.Items[0].Quantity)
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	a := newTestApp(t)
	resp, raw := a.do(t, "POST", "/orders", a.token(t, "u-alice"), placeBody(
		line{"variantId": "tee-classic-m", "quantity": 2},
		line{"variantId": "tee-classic-l", "quantity": 1},
		line{"variantId": "tee-classic-m", "quantity": 2},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	o := decodeOrder(t, raw)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "tee-classic-m", o.Items[0].VariantID)
	assert.Equal(t, 4, o.Items[0].Quantity)
	assert.Equal(t, 36, a.stock(t, "tee-classic-m"))
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	a := newTestApp(t)
	alice := a.token(t, "u-alice")

	cases := map[string]any{
		"malformed":      `{"items": [`,
		"no items":       placeBody(),
		"zero quantity":  placeBody(line{"variantId": "tee-classic-m", "quantity": 0}),
		"over max":       placeBody(line{"variantId": "tee-classic-m", "quantity": 51}),
		"negative":       placeBody(line{"variantId": "tee-classic-m", "quantity": -2}),
		"bad variant id": placeBody(line{"variantId": "../etc", "quantity": 1}),
		"bad payment": map[string]any{
			"items":         []line{{"variantId": "tee-classic-m", "quantity": 1}},
			"paymentMethod": "iou",
		},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, raw := a.do(t, "POST", "/orders", alice, body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
			assert.Equal(t, "invalid_request", decodeErr(t, raw).Error)
		})
	}
	assert.Zero(t, a.count(t, "orders"))
}

func TestOrderListScopes(t *testing.T) {
	a := newTestApp(t)
	for _, u := range []string{"u-alice", "u-bob"} {
		resp, _ := a.do(t, "POST", "/orders", a.token(t, u), placeBody(line{"variantId": "tee-classic-m", "quantity": 1}))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var mine []domain.Order
	_, raw := a.do(t, "GET", "/orders", a.token(t, "u-alice"), nil)
	require.NoError(t, json.Unmarshal(raw, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "u-alice", mine[0].UserID)
	assert.Len(t, mine[0].Items, 1)

	var all []domain.Order
	_, raw = a.do(t, "GET", "/orders", a.token(t, "u-admin"), nil)
	require.NoError(t, json.Unmarshal(raw, &all))
	assert.Len(t, all, 2)
}

func TestOrderStatusUpdates(t *testing.T) {
	a := newTestApp(t)
	admin := a.token(t, "u-admin")
	resp, raw := a.do(t, "POST", "/orders", a.token(t, "u-alice"), placeBody(line{"variantId": "hoodie-zip-m", "quantity": 2}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeOrder(t, raw).ID
	require.Equal(t, 10, a.stock(t, "hoodie-zip-m"))

	resp, _ = a.do(t, "PUT", "/orders/"+id, a.token(t, "u-alice"), map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = a.do(t, "PUT", "/orders/"+id, admin, map[string]any{"status": "paid", "paymentStatus": "paid"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	o := decodeOrder(t, raw)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Len(t, o.Items, 1)

	resp, raw = a.do(t, "PUT", "/orders/"+id, admin, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", decodeErr(t, raw).Error)

	resp, _ = a.do(t, "PUT", "/orders/"+id, admin, map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = a.do(t, "PUT", "/orders/"+id, admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, "PUT", "/orders/"+id, admin, map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, a.stock(t, "hoodie-zip-m"))

	resp, _ = a.do(t, "PUT", "/orders/"+id, admin, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = a.do(t, "PUT", "/orders/missing-order", admin, map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
