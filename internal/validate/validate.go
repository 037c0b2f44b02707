package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const MaxQty = 50

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSize  = regexp.MustCompile(`^[A-Za-z0-9.]{1,8}$`)
	reSKU   = regexp.MustCompile(`^[A-Za-z0-9._-]{1,40}$`)

	maxPrice = decimal.NewFromInt(1_000_000)
)

var paymentMethods = map[string]bool{"card": true, "paypal": true, "bank_transfer": true, "cash_on_delivery": true}

func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a resource identifier (seed slugs and UUIDs both match).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 40 {
		return "", false
	}
	return s, true
}

// Title is a product name or description line.
func Title(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > max {
		return "", false
	}
	return s, true
}

func Size(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reSize.MatchString(s)
}

// SKU is a merchant stock code, stored upper-cased.
func SKU(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reSKU.MatchString(s)
}

// ImageURL accepts absolute http(s) URLs up to 500 bytes.
func ImageURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return s, true
}

// Qty accepts 1..MaxQty per request line.
func Qty(n int) bool { return n >= 1 && n <= MaxQty }

// Stock accepts an absolute on-hand level.
func Stock(n int) bool { return n >= 0 && n <= 1_000_000 }

// Price accepts non-negative amounts with at most two decimal places.
func Price(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(maxPrice) && d.Equal(d.Round(2))
}

// Address is free text; empty is allowed and the length is bounded.
func Address(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 300
}

func PaymentMethod(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "card", true
	}
	return s, paymentMethods[s]
}

// Password enforces length and character-class rules for new accounts.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
