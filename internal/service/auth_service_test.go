package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"staffhub/internal/entity"
	"staffhub/internal/repository"
	"staffhub/internal/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Session{},
		&entity.TwoFactorCode{},
		&entity.VerificationToken{},
		&entity.SecurityLog{},
		&entity.Employee{},
	)
	if err != nil {
		t.Fatalf("failed automigrating entities: %v", err)
	}
	return db
}

type fakeNotifier struct {
	sentCodes   []string
	resetTokens []string
	failSend    bool
}

func (n *fakeNotifier) SendTwoFactorCode(_ context.Context, _ string, _ entity.TwoFactorMethod, code string) error {
	if n.failSend {
		return errors.New("delivery failed")
	}
	n.sentCodes = append(n.sentCodes, code)
	return nil
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, _ string, token string) error {
	if n.failSend {
		return errors.New("delivery failed")
	}
	n.resetTokens = append(n.resetTokens, token)
	return nil
}

func (n *fakeNotifier) lastCode(t *testing.T) string {
	t.Helper()
	if len(n.sentCodes) == 0 {
		t.Fatal("no code was sent")
	}
	return n.sentCodes[len(n.sentCodes)-1]
}

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type authTestEnv struct {
	db       *gorm.DB
	service  *AuthService
	notifier *fakeNotifier
	clock    *fakeClock
	codes    repository.TwoFactorCodeRepository
	users    repository.UserRepository
	hasher   PasswordHasher
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	db := setupAuthTestDB(t)
	notifier := &fakeNotifier{}
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	hasher := BcryptPasswordHasher{Cost: 4}

	manager := utils.JWTManager{
		Secret:         []byte("test-access-secret"),
		Issuer:         "staffhub-test",
		AccessTokenTTL: 15 * time.Minute,
	}
	pendingIssuer := PendingTokenIssuerJWT{
		Secret: []byte("test-pending-secret"),
		Issuer: "staffhub-test",
		TTL:    10 * time.Minute,
	}

	userRepo := repository.NewUserRepository(db)
	codeRepo := repository.NewTwoFactorCodeRepository(db)

	service := NewAuthService(
		userRepo,
		repository.NewSessionRepository(db),
		codeRepo,
		repository.NewVerificationTokenRepository(db),
		repository.NewSecurityLogRepository(db),
		notifier,
		hasher,
		JWTAccessIssuer{Manager: &manager},
		pendingIssuer,
		clock,
		AuthConfig{
			RefreshTokenTTL: 30 * 24 * time.Hour,
			CodeTTL:         10 * time.Minute,
			ResetTokenTTL:   30 * time.Minute,
		},
	)

	return &authTestEnv{
		db:       db,
		service:  service,
		notifier: notifier,
		clock:    clock,
		codes:    codeRepo,
		users:    userRepo,
		hasher:   hasher,
	}
}

func (env *authTestEnv) createUser(t *testing.T, email, password string, twoFactor bool) *entity.User {
	t.Helper()
	hash, err := env.hasher.Hash(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}
	user := &entity.User{
		Username:         email[:len(email)-len("@example.com")],
		Email:            email,
		PasswordHash:     &hash,
		FirstName:        "Test",
		LastName:         "User",
		Role:             entity.UserRoleEmployee,
		TwoFactorEnabled: twoFactor,
		TwoFactorMethod:  entity.TwoFactorEmail,
		IsActive:         true,
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func (env *authTestEnv) codeCount(t *testing.T, user *entity.User) int {
	t.Helper()
	records, err := env.codes.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed listing codes: %v", err)
	}
	return len(records)
}

func TestLogin_WithoutTwoFactor(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "direct@example.com", "secret123", false)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "direct@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.TwoFactorRequired {
		t.Error("expected no verification step for a user without two-factor")
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected session tokens on direct login")
	}
	if result.PendingToken != "" {
		t.Error("expected no pending token on direct login")
	}
	if count := env.codeCount(t, user); count != 0 {
		t.Errorf("expected no codes issued, got %d", count)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newAuthTestEnv(t)
	env.createUser(t, "known@example.com", "secret123", false)

	_, wrongPassword := env.service.Login(context.Background(), LoginInput{
		Email:    "known@example.com",
		Password: "not-the-password",
	})
	_, unknownEmail := env.service.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", unknownEmail)
	}
	// A caller must not be able to tell the two cases apart.
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Error("unknown email and wrong password produced distinguishable errors")
	}
}

func TestLogin_TwoFactorIssuesCode(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "twofa@example.com", "secret123", true)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.TwoFactorRequired {
		t.Fatal("expected the verification step to be required")
	}
	if result.AccessToken != "" {
		t.Error("expected no access token before verification")
	}
	if result.PendingToken == "" {
		t.Error("expected a pending token")
	}
	if result.TwoFactorMethod != entity.TwoFactorEmail {
		t.Errorf("method = %q, want email", result.TwoFactorMethod)
	}

	records, err := env.codes.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed listing codes: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one code row, got %d", len(records))
	}
	record := records[0]
	if record.Used {
		t.Error("freshly issued code must be unused")
	}
	wantExpiry := env.clock.Now().Add(10 * time.Minute)
	if !record.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expiry = %v, want %v", record.ExpiresAt, wantExpiry)
	}
	if env.notifier.lastCode(t) != record.Code {
		t.Error("notifier received a different code than the one stored")
	}
}

func TestVerifyTwoFactor_MalformedCode(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "twofa@example.com", "secret123", true)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "12a456", "12 456"} {
		_, err := env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
			PendingToken: result.PendingToken,
			Code:         code,
		})
		if !errors.Is(err, ErrMalformedCode) {
			t.Errorf("code %q: got %v, want ErrMalformedCode", code, err)
		}
	}

	records, err := env.codes.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed listing codes: %v", err)
	}
	if len(records) != 1 || records[0].Used {
		t.Error("malformed submissions must not touch stored codes")
	}
}

func TestVerifyTwoFactor_WrongCode(t *testing.T) {
	env := newAuthTestEnv(t)
	env.createUser(t, "twofa@example.com", "secret123", true)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	issued := env.notifier.lastCode(t)
	wrong := "000000"
	if wrong == issued {
		wrong = "000001"
	}
	_, err = env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
		PendingToken: result.PendingToken,
		Code:         wrong,
	})
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("got %v, want ErrCodeNotFound", err)
	}

	// The issued code is untouched and still works.
	verified, err := env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
		PendingToken: result.PendingToken,
		Code:         issued,
	})
	if err != nil {
		t.Fatalf("verification with the issued code failed: %v", err)
	}
	if verified.AccessToken == "" {
		t.Error("expected session tokens after verification")
	}
}

func TestVerifyTwoFactor_CodeIsSingleUse(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "twofa@example.com", "secret123", true)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	code := env.notifier.lastCode(t)

	if _, err := env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
		PendingToken: result.PendingToken,
		Code:         code,
	}); err != nil {
		t.Fatalf("first verification failed: %v", err)
	}

	_, err = env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
		PendingToken: result.PendingToken,
		Code:         code,
	})
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("second use: got %v, want ErrCodeNotFound", err)
	}

	records, err := env.codes.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed listing codes: %v", err)
	}
	if len(records) != 1 || !records[0].Used {
		t.Error("expected the single code row to be marked used")
	}
}

func TestVerifyTwoFactor_ExpiredCode(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "twofa@example.com", "secret123", true)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	code := env.notifier.lastCode(t)

	env.clock.Advance(10*time.Minute + time.Second)

	for i := 0; i < 2; i++ {
		_, err := env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
			PendingToken: result.PendingToken,
			Code:         code,
		})
		if !errors.Is(err, ErrCodeExpired) {
			t.Fatalf("attempt %d: got %v, want ErrCodeExpired", i+1, err)
		}
	}

	// Expiry is a property of the row, not a state transition.
	records, err := env.codes.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed listing codes: %v", err)
	}
	if len(records) != 1 || records[0].Used {
		t.Error("expired code must never be marked used")
	}
}

func TestResend_KeepsEarlierCodesValid(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "twofa@example.com", "secret123", true)

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	first := env.notifier.lastCode(t)

	env.clock.Advance(time.Minute)
	if err := env.service.ResendTwoFactorCode(context.Background(), result.PendingToken); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if count := env.codeCount(t, user); count != 2 {
		t.Fatalf("expected two code rows after resend, got %d", count)
	}

	// Resend adds a code, it does not cancel the first one.
	verified, err := env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
		PendingToken: result.PendingToken,
		Code:         first,
	})
	if err != nil {
		t.Fatalf("first code rejected after resend: %v", err)
	}
	if verified.AccessToken == "" {
		t.Error("expected session tokens after verification")
	}
}

func TestLogin_NotifierFailureDoesNotBlockFlow(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "twofa@example.com", "secret123", true)
	env.notifier.failSend = true

	result, err := env.service.Login(context.Background(), LoginInput{
		Email:    "twofa@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login failed despite delivery error: %v", err)
	}
	if !result.TwoFactorRequired || result.PendingToken == "" {
		t.Error("expected the verification step despite delivery error")
	}
	if count := env.codeCount(t, user); count != 1 {
		t.Errorf("expected the code row to exist despite delivery error, got %d", count)
	}
}

func TestLoginVerifyResendScenario(t *testing.T) {
	env := newAuthTestEnv(t)
	env.createUser(t, "a@example.com", "secret123", true)
	ctx := context.Background()

	login, err := env.service.Login(ctx, LoginInput{Email: "a@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	firstCode := env.notifier.lastCode(t)

	wrong := "999999"
	if wrong == firstCode {
		wrong = "999998"
	}
	if _, err := env.service.VerifyTwoFactor(ctx, VerifyCodeInput{
		PendingToken: login.PendingToken,
		Code:         wrong,
	}); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("wrong code: got %v, want ErrCodeNotFound", err)
	}

	// The first code ages past its expiry.
	env.clock.Advance(10*time.Minute + time.Second)
	if _, err := env.service.VerifyTwoFactor(ctx, VerifyCodeInput{
		PendingToken: login.PendingToken,
		Code:         firstCode,
	}); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expired code: got %v, want ErrCodeExpired", err)
	}

	if err := env.service.ResendTwoFactorCode(ctx, login.PendingToken); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	secondCode := env.notifier.lastCode(t)

	verified, err := env.service.VerifyTwoFactor(ctx, VerifyCodeInput{
		PendingToken: login.PendingToken,
		Code:         secondCode,
	})
	if err != nil {
		t.Fatalf("verification with resent code failed: %v", err)
	}
	if verified.AccessToken == "" || verified.RefreshToken == "" {
		t.Error("expected session tokens after the resent code verified")
	}

	if _, err := env.service.VerifyTwoFactor(ctx, VerifyCodeInput{
		PendingToken: login.PendingToken,
		Code:         secondCode,
	}); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("reused code: got %v, want ErrCodeNotFound", err)
	}
}

func TestVerifyTwoFactor_BadPendingToken(t *testing.T) {
	env := newAuthTestEnv(t)
	env.createUser(t, "twofa@example.com", "secret123", true)

	_, err := env.service.VerifyTwoFactor(context.Background(), VerifyCodeInput{
		PendingToken: "not-a-token",
		Code:         "123456",
	})
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("got %v, want ErrSessionExpired", err)
	}
}

func TestToggleTwoFactor(t *testing.T) {
	env := newAuthTestEnv(t)
	user := env.createUser(t, "toggle@example.com", "secret123", false)
	ctx := context.Background()

	enabled, err := env.service.ToggleTwoFactor(ctx, user.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !enabled {
		t.Fatal("expected two-factor to be enabled after first toggle")
	}

	// The flag takes effect on the next login.
	result, err := env.service.Login(ctx, LoginInput{Email: "toggle@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.TwoFactorRequired {
		t.Error("expected the verification step after enabling two-factor")
	}

	enabled, err = env.service.ToggleTwoFactor(ctx, user.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if enabled {
		t.Error("expected two-factor to be disabled after second toggle")
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	env := newAuthTestEnv(t)
	env.createUser(t, "refresh@example.com", "secret123", false)
	ctx := context.Background()

	login, err := env.service.Login(ctx, LoginInput{Email: "refresh@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	refreshed, err := env.service.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("expected the refresh token to rotate")
	}

	if _, err := env.service.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("stale refresh token: got %v, want ErrInvalidToken", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newAuthTestEnv(t)
	env.createUser(t, "reset@example.com", "oldpassword", false)
	ctx := context.Background()

	if err := env.service.RequestPasswordReset(ctx, "reset@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	if len(env.notifier.resetTokens) != 1 {
		t.Fatalf("expected one reset token, got %d", len(env.notifier.resetTokens))
	}
	token := env.notifier.resetTokens[0]

	if err := env.service.ResetPassword(ctx, token, "newpassword"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, err := env.service.Login(ctx, LoginInput{Email: "reset@example.com", Password: "oldpassword"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted after reset")
	}
	if _, err := env.service.Login(ctx, LoginInput{Email: "reset@example.com", Password: "newpassword"}); err != nil {
		t.Errorf("new password rejected after reset: %v", err)
	}

	if err := env.service.ResetPassword(ctx, token, "another"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused reset token: got %v, want ErrInvalidToken", err)
	}
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	env := newAuthTestEnv(t)

	if err := env.service.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silence for an unknown address, got %v", err)
	}
	if len(env.notifier.resetTokens) != 0 {
		t.Error("no token should be issued for an unknown address")
	}
}
