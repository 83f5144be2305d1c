package service

import "staffhub/internal/entity"

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Role            entity.UserRole
	TwoFactorMethod entity.TwoFactorMethod
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
	UserAgent *string
}

type VerifyCodeInput struct {
	PendingToken string
	Code         string
	IPAddress    *string
	UserAgent    *string
}

type LoginResult struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64

	TwoFactorRequired     bool
	TwoFactorMethod       entity.TwoFactorMethod
	PendingToken          string
	PendingTokenExpiresIn int64
}
