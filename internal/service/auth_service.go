package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"staffhub/internal/entity"
	"staffhub/internal/repository"
	"staffhub/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

const twoFactorCodeLength = 6

type AuthService struct {
	users         repository.UserRepository
	sessions      repository.SessionRepository
	codes         repository.TwoFactorCodeRepository
	verifications repository.VerificationTokenRepository
	securityLogs  repository.SecurityLogRepository

	notifier      CodeNotifier
	passwordHash  PasswordHasher
	accessTokens  AccessTokenIssuer
	pendingTokens PendingTokenIssuer
	clock         Clock
	config        AuthConfig
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	codes repository.TwoFactorCodeRepository,
	verifications repository.VerificationTokenRepository,
	securityLogs repository.SecurityLogRepository,
	notifier CodeNotifier,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	pendingTokens PendingTokenIssuer,
	clock Clock,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:         users,
		sessions:      sessions,
		codes:         codes,
		verifications: verifications,
		securityLogs:  securityLogs,
		notifier:      notifier,
		passwordHash:  passwordHash,
		accessTokens:  accessTokens,
		pendingTokens: pendingTokens,
		clock:         clock,
		config:        config,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	if strings.TrimSpace(input.Username) == "" || strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	taken, err = s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = entity.UserRoleEmployee
	}
	user := &entity.User{
		Username:        input.Username,
		Email:           email,
		PasswordHash:    &hash,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Role:            role,
		TwoFactorMethod: input.TwoFactorMethod,
		IsActive:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the primary credentials. With two-factor disabled it finalizes
// the session straight away; otherwise it issues a fresh one-time code and
// hands back a pending token for the verification step.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		// Unknown email and wrong password must be indistinguishable, in
		// error and in timing.
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		_ = s.logSecurity(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !s.passwordHash.Verify(*user.PasswordHash, input.Password) {
		_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if err := s.issueTwoFactorCode(ctx, user); err != nil {
			return nil, err
		}
		pendingToken, expiresIn, err := s.pendingTokens.IssuePendingToken(user.ID, user.TwoFactorMethod)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			TwoFactorRequired:     true,
			TwoFactorMethod:       user.TwoFactorMethod,
			PendingToken:          pendingToken,
			PendingTokenExpiresIn: int64(expiresIn.Seconds()),
		}, nil
	}

	result, err := s.createSessionAndTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}
	_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, nil)
	return result, nil
}

// VerifyTwoFactor consumes a one-time code and finalizes the session. The
// shape check runs before anything touches the ledger, and the used flag is
// flipped with a guarded update so concurrent submissions of the same code
// cannot both succeed.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, input VerifyCodeInput) (*LoginResult, error) {
	if !isNumericCode(input.Code) {
		return nil, ErrMalformedCode
	}

	userID, _, err := s.pendingTokens.ParsePendingToken(input.PendingToken)
	if err != nil {
		return nil, ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionExpired
	}

	record, err := s.codes.FindUnused(ctx, user.ID, input.Code)
	if err != nil {
		return nil, err
	}
	if record == nil {
		_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.TwoFactorFailed, map[string]any{"reason": "not_found"})
		return nil, ErrCodeNotFound
	}
	if !record.IsValid(s.now()) {
		_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.TwoFactorFailed, map[string]any{"reason": "expired"})
		return nil, ErrCodeExpired
	}

	consumed, err := s.codes.Consume(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Lost the race to a concurrent submission of the same code.
		return nil, ErrCodeNotFound
	}

	result, err := s.createSessionAndTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}
	_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, map[string]any{"two_factor": true})
	return result, nil
}

// ResendTwoFactorCode issues another code for the pending user. Codes issued
// earlier stay valid until their own expiry.
func (s *AuthService) ResendTwoFactorCode(ctx context.Context, pendingToken string) error {
	userID, _, err := s.pendingTokens.ParsePendingToken(pendingToken)
	if err != nil {
		return ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrSessionExpired
	}
	return s.issueTwoFactorCode(ctx, user)
}

// ToggleTwoFactor flips the preference for the authenticated user. It takes
// effect on the next login attempt.
func (s *AuthService) ToggleTwoFactor(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}

	enabled := !user.TwoFactorEnabled
	if err := s.users.SetTwoFactorEnabled(ctx, userID, enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.FindByTokenHash(ctx, utils.HashToken(refreshToken), s.now())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	newRefreshToken, newRefreshHash, newRefreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RotateToken(ctx, session.ID, newRefreshHash, newRefreshExpiry); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     newRefreshToken,
		RefreshExpiresIn: int64(newRefreshExpiry.Sub(s.now()).Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID, userID *uuid.UUID, ipAddress *string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, userID, ipAddress, entity.Logout, nil)
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID, ipAddress *string) error {
	if err := s.sessions.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, &userID, ipAddress, entity.SessionRevoked, map[string]any{"scope": "all"})
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		// Do not reveal whether the address is registered.
		return nil
	}

	token, err := s.createVerificationToken(ctx, user.ID, entity.PasswordReset, s.resetTokenTTL())
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
			return err
		}
	}

	_ = s.logSecurity(ctx, &user.ID, nil, entity.Reset, nil)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}

	verification, err := s.verifications.FindValid(ctx, utils.HashToken(token), entity.PasswordReset, s.now())
	if err != nil {
		return err
	}
	if verification == nil {
		return ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, verification.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = &hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.verifications.MarkUsed(ctx, verification.ID); err != nil {
		return err
	}

	_ = s.sessions.RevokeAllByUser(ctx, user.ID)
	_ = s.logSecurity(ctx, &user.ID, nil, entity.Reset, map[string]any{"source": "password_reset"})
	return nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) issueTwoFactorCode(ctx context.Context, user *entity.User) error {
	code, err := utils.GenerateNumericCode(twoFactorCodeLength)
	if err != nil {
		return err
	}

	now := s.now()
	record := &entity.TwoFactorCode{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.codeTTL()),
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return err
	}

	if s.notifier != nil {
		// Delivery failures are not surfaced to the login flow.
		_ = s.notifier.SendTwoFactorCode(ctx, user.Email, user.TwoFactorMethod, code)
	}
	_ = s.logSecurity(ctx, &user.ID, nil, entity.TwoFactorSent, map[string]any{"method": string(user.TwoFactorMethod)})
	return nil
}

func (s *AuthService) createSessionAndTokens(
	ctx context.Context,
	user *entity.User,
	ipAddress *string,
	userAgent *string,
) (*LoginResult, error) {
	refreshToken, refreshHash, refreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		UserID:    user.ID,
		TokenHash: refreshHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: refreshExpiry,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(refreshExpiry.Sub(s.now()).Seconds()),
	}, nil
}

func (s *AuthService) createVerificationToken(
	ctx context.Context,
	userID uuid.UUID,
	typeValue entity.VerificationType,
	ttl time.Duration,
) (string, error) {
	rawToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		return "", err
	}

	verification := &entity.VerificationToken{
		UserID:    userID,
		TokenHash: utils.HashToken(rawToken),
		Type:      typeValue,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.verifications.Create(ctx, verification); err != nil {
		return "", err
	}
	return rawToken, nil
}

func (s *AuthService) buildRefreshToken() (string, string, time.Time, error) {
	rawToken, err := utils.GenerateRandomToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTokenTTL())
	return rawToken, utils.HashToken(rawToken), expiresAt, nil
}

func (s *AuthService) logSecurity(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	if s.securityLogs == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	return s.securityLogs.Log(ctx, log)
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) codeTTL() time.Duration {
	if s.config.CodeTTL > 0 {
		return s.config.CodeTTL
	}
	return 10 * time.Minute
}

func (s *AuthService) resetTokenTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return 30 * time.Minute
}

func (s *AuthService) refreshTokenTTL() time.Duration {
	if s.config.RefreshTokenTTL > 0 {
		return s.config.RefreshTokenTTL
	}
	return 30 * 24 * time.Hour
}

func isNumericCode(code string) bool {
	if len(code) != twoFactorCodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
