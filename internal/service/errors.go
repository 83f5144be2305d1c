package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("a user with that email already exists")
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")

	// Second-factor rejections. None of these ever mutate the code ledger.
	ErrMalformedCode  = errors.New("verification code must be 6 digits")
	ErrCodeNotFound   = errors.New("invalid verification code")
	ErrCodeExpired    = errors.New("verification code has expired")
	ErrSessionExpired = errors.New("two-factor session expired")

	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrEmployeeExists    = errors.New("an employee with that email already exists")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
