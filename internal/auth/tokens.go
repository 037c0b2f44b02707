package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/domain"
)

// AccessToken is a signed bearer token and its expiry.
type AccessToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expiresAt"`
}

// TokenIssuer signs and verifies HS256 access tokens. Tokens carry only the
// subject; roles are resolved from the store on every request.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(userID string) (AccessToken, error) {
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Subject verifies raw and returns its subject. Every failure maps to domain.ErrInvalidCredential.
func (t *TokenIssuer) Subject(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", domain.ErrInvalidCredential)
	}
	return claims.Subject, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool { return errors.Is(err, jwt.ErrTokenExpired) }
