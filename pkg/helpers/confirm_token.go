package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const confirmPurpose = "confirm_email"

// ErrInvalidToken is returned for any confirmation token that does not verify.
var ErrInvalidToken = errors.New("invalid confirmation token")

// ConfirmTokenCodec binds an email address to the server secret. Tokens are
// not stored anywhere, so they stay valid until TTL (if any) runs out or the
// secret changes.
type ConfirmTokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type confirmClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewConfirmTokenCodec builds a codec; ttl <= 0 issues tokens without expiry.
func NewConfirmTokenCodec(secret string, ttl time.Duration) *ConfirmTokenCodec {
	return &ConfirmTokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *ConfirmTokenCodec) Encode(email string) (string, error) {
	now := c.now()
	claims := &confirmClaims{
		Email:   email,
		Purpose: confirmPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode returns the email a token was issued for. Every failure collapses
// into ErrInvalidToken.
func (c *ConfirmTokenCodec) Decode(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	claims := &confirmClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, hmacKey(c.secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tkn.Valid {
		return "", ErrInvalidToken
	}
	if claims.Purpose != confirmPurpose || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}
