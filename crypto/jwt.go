package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stopgame/domain"
)

// sessionClaims is the token payload: the user id plus the registered
// expiry. Kept to two fields so the session cookie stays small.
type sessionClaims struct {
	Id string `json:"id"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	key    []byte
	maxAge time.Duration
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{key: []byte(secretKey), maxAge: maxAge}
}

// Generate signs a session token for the user, expiring maxAge after now.
func (m *JWTManager) Generate(id string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Id: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	})

	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}
	return signed, nil
}

// keyFunc pins the algorithm to HS256. Anything else, "none" included,
// is rejected before any signature check happens.
func (m *JWTManager) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, domain.ErrInvalidSigningAlg
	}
	return m.key, nil
}

// Verify checks signature and expiry and returns the embedded user id.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, m.keyFunc)

	switch {
	case err == nil && token.Valid:
		return claims.Id, nil
	case errors.Is(err, domain.ErrInvalidSigningAlg):
		return "", domain.ErrInvalidSigningAlg
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrExpiredToken
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return "", domain.ErrInvalidTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", domain.ErrCorruptedToken
	case err != nil:
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
	}

	return "", domain.ErrCorruptedToken
}
