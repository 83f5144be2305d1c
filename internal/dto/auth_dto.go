package dto

import (
	"time"

	"staffhub/internal/entity"
)

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Role            string `json:"role" validate:"omitempty,oneof=employee admin"`
	TwoFactorMethod string `json:"two_factor_method" validate:"omitempty,oneof=email sms authenticator"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyCodeRequest struct {
	PendingToken string `json:"pending_token" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

type ResendCodeRequest struct {
	PendingToken string `json:"pending_token" validate:"required"`
}

type LoginResponse struct {
	AccessToken      string `json:"access_token,omitempty"`
	ExpiresIn        int64  `json:"expires_in,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`

	TwoFactorRequired     bool   `json:"two_factor_required,omitempty"`
	TwoFactorMethod       string `json:"two_factor_method,omitempty"`
	PendingToken          string `json:"pending_token,omitempty"`
	PendingTokenExpiresIn int64  `json:"pending_token_expires_in,omitempty"`
}

type ResendCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ToggleTwoFactorResponse struct {
	Enabled bool `json:"enabled"`
}

type PasswordForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UserResponse struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Role             string    `json:"role"`
	Phone            string    `json:"phone,omitempty"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorMethod  string    `json:"two_factor_method,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:               user.ID.String(),
		Username:         user.Username,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Role:             string(user.Role),
		Phone:            user.Phone,
		TwoFactorEnabled: user.TwoFactorEnabled,
		TwoFactorMethod:  string(user.TwoFactorMethod),
		IsActive:         user.IsActive,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}
