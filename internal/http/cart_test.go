package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func decodeCart(t *testing.T, raw []byte) domain.CartView {
	t.Helper()
	var cv domain.CartView
	require.NoError(t, json.Unmarshal(raw, &cv), string(raw))
	return cv
}

func TestCartAddAccumulatesAndCheckout(t *testing.T) {
	a := newTestApp(t)
	alice := a.token(t, "u-alice")

	resp, _ := a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "tee-classic-m", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, raw := a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "tee-classic-m", "quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cv := decodeCart(t, raw)
	require.Len(t, cv.Entries, 1)
	assert.Equal(t, 5, cv.Entries[0].Quantity)
	assert.True(t, cv.Total.Equal(decimal.RequireFromString("99.95")), cv.Total.String())

	_, raw = a.do(t, "GET", "/cart", a.token(t, "u-bob"), nil)
	assert.Empty(t, decodeCart(t, raw).Entries, "carts are per user")

	resp, raw = a.do(t, "POST", "/cart/checkout", alice, map[string]any{"shippingAddress": "9 Elm Rd"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	o := decodeOrder(t, raw)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("99.95")))
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, 35, a.stock(t, "tee-classic-m"))

	_, raw = a.do(t, "GET", "/cart", alice, nil)
	assert.Empty(t, decodeCart(t, raw).Entries)

	resp, raw = a.do(t, "POST", "/cart/checkout", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeErr(t, raw).Error)
}

func TestCheckoutShortStockKeepsCart(t *testing.T) {
	a := newTestApp(t)
	bob := a.token(t, "u-bob")
	resp, _ := a.do(t, "POST", "/cart", bob, map[string]any{"variantId": "runner-01-44", "quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := a.do(t, "POST", "/cart/checkout", bob, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "runner-01-44", decodeErr(t, raw).VariantID)

	_, raw = a.do(t, "GET", "/cart", bob, nil)
	cv := decodeCart(t, raw)
	require.Len(t, cv.Entries, 1)
	assert.Equal(t, 3, cv.Entries[0].Quantity)
	assert.Zero(t, a.count(t, "orders"))
}

func TestCartRejectsBadLines(t *testing.T) {
	a := newTestApp(t)
	alice := a.token(t, "u-alice")

	resp, raw := a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "ghost", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "variant_not_found", decodeErr(t, raw).Error)

	resp, _ = a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "tee-classic-m", "quantity": 99})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, "DELETE", "/cart/tee-classic-m", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(t, "POST", "/cart", alice, map[string]any{"variantId": "tee-classic-m"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, raw = a.do(t, "DELETE", "/cart/tee-classic-m", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeCart(t, raw).Entries)
}
