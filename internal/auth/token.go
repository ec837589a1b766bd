package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// TokenManager issues and validates the short-lived JWTs the gateway
// attaches to each forwarded request.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 15
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes the JWT payload carried per request.
type Claims struct {
	Tag          string              `json:"tag"`
	Capabilities []domain.Capability `json:"caps"`
	jwt.RegisteredClaims
}

// GenerateToken signs a JWT asserting the actor's identity and capabilities.
func (tm *TokenManager) GenerateToken(actor domain.Actor) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		Tag:          actor.Tag,
		Capabilities: actor.Capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates a token and returns the actor it asserts.
func (tm *TokenManager) ParseToken(tokenStr string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return domain.Actor{}, errors.New("token missing subject")
	}
	return domain.Actor{
		ID:           claims.Subject,
		Tag:          claims.Tag,
		Capabilities: claims.Capabilities,
	}, nil
}
