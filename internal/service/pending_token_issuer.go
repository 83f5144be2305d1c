package service

import (
	"errors"
	"time"

	"staffhub/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidPendingToken = errors.New("invalid pending token")

// PendingTokenIssuerJWT hands the first-factor result to the verification
// step as a signed short-lived token instead of ambient session state.
type PendingTokenIssuerJWT struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

type pendingClaims struct {
	UserID string `json:"sub"`
	Type   string `json:"typ"`
	Method string `json:"mtd"`
	jwt.RegisteredClaims
}

func (p PendingTokenIssuerJWT) IssuePendingToken(userID uuid.UUID, method entity.TwoFactorMethod) (string, time.Duration, error) {
	ttl := p.TTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	now := time.Now()
	claims := pendingClaims{
		UserID: userID.String(),
		Type:   "2fa",
		Method: string(method),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (p PendingTokenIssuerJWT) ParsePendingToken(token string) (uuid.UUID, entity.TwoFactorMethod, error) {
	parsed, err := jwt.ParseWithClaims(token, &pendingClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidPendingToken
		}
		return p.Secret, nil
	})
	if err != nil {
		return uuid.Nil, "", ErrInvalidPendingToken
	}
	claims, ok := parsed.Claims.(*pendingClaims)
	if !ok || !parsed.Valid || claims.Type != "2fa" {
		return uuid.Nil, "", ErrInvalidPendingToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", ErrInvalidPendingToken
	}
	return id, entity.TwoFactorMethod(claims.Method), nil
}
