package identity

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims identify a session (jti) and its account (sub).
type Claims struct {
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	issuer string
}

func NewTokens(secret, issuer string) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer}
}

func (t *Tokens) Issue(s Session) (string, error) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   s.AccountID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates signature, issuer and expiry. Any failure is ErrNoSession.
func (t *Tokens) Parse(tokenStr string, now time.Time) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %v: %w", err, ErrNoSession)
	}
	if !tok.Valid || claims.ID == "" || claims.Subject == "" {
		return Claims{}, fmt.Errorf("parse token: %w", ErrNoSession)
	}
	return claims, nil
}

var errEmptySecret = errors.New("empty token secret")
