package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainuser "hireme/internal/domain/user"
)

var (
	ErrSecretMissing = errors.New("security: jwt secret is required")
	ErrInvalidToken  = errors.New("security: invalid token")
)

// AuthClaims is the signed token payload: the user id plus standard expiry.
type AuthClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies HS256 access tokens.
type JWTCodec struct {
	Secret string
	TTL    time.Duration
}

func (c JWTCodec) Issue(userID domainuser.ID, issuedAt time.Time) (string, error) {
	if c.Secret == "" {
		return "", ErrSecretMissing
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	claims := AuthClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.Secret))
	if err != nil {
		return "", fmt.Errorf("security: sign token: %w", err)
	}
	return signed, nil
}

func (c JWTCodec) Verify(raw string) (domainuser.ID, error) {
	if c.Secret == "" {
		return 0, ErrSecretMissing
	}
	token, err := jwt.ParseWithClaims(raw, &AuthClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method %q", t.Header["alg"])
		}
		return []byte(c.Secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AuthClaims)
	if !ok || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

func (c JWTCodec) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return 7 * 24 * time.Hour
}
