package service

import (
	"context"
	"time"

	"staffhub/internal/entity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the lifetimes AuthService applies itself. Access and
// pending token lifetimes belong to their issuers.
type AuthConfig struct {
	RefreshTokenTTL time.Duration
	CodeTTL         time.Duration
	ResetTokenTTL   time.Duration
}

// CodeNotifier delivers one-time codes and reset links out of band. Delivery
// is fire-and-forget from the login flow's point of view.
type CodeNotifier interface {
	SendTwoFactorCode(ctx context.Context, email string, method entity.TwoFactorMethod, code string) error
	SendPasswordReset(ctx context.Context, email string, token string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error)
}

// PendingTokenIssuer carries the authenticated-but-unverified user between
// the password step and the code step of a two-factor login.
type PendingTokenIssuer interface {
	IssuePendingToken(userID uuid.UUID, method entity.TwoFactorMethod) (string, time.Duration, error)
	ParsePendingToken(token string) (uuid.UUID, entity.TwoFactorMethod, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
