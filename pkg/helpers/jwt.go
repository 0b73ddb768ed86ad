package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "skyport/session"

// SessionTokenManager signs and verifies the session cookie value. The cookie
// only carries the session id and username; the session itself lives in Redis.
type SessionTokenManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewSessionTokenManager(secret string, ttl time.Duration) *SessionTokenManager {
	return &SessionTokenManager{Secret: []byte(secret), TTL: ttl}
}

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Username returns the subject the session was issued for.
func (c *SessionClaims) Username() string { return c.Subject }

func (m *SessionTokenManager) Generate(sessionID, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.TTL)
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *SessionTokenManager) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, hmacKey(m.Secret),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}
}
