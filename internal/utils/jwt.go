package utils // package utils provides helpers for session tokens and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing the session cookie
)

// ErrInvalidToken is returned for tokens that are malformed, expired or
// signed with another key.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is what the session cookie carries. The session id is the
// JWT id (jti) and the user id the subject (sub).
type SessionClaims struct {
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

// NewSessionToken signs an HS256 JWT that points at a server-side session.
// The token itself grants nothing: the session must still exist in the
// session store when the cookie comes back.
func NewSessionToken(secret, sessionID, userID string, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		ExpiresAt: jwt.NewNumericDate(exp.UTC()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseSessionToken verifies raw and returns its claims.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// reject anything that is not HMAC signed
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid || claims.ID == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	out := SessionClaims{SessionID: claims.ID, UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
