package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"staffhub/api/handler"
	apiMiddleware "staffhub/api/middleware"
	"staffhub/api/routes"
	"staffhub/config"
	"staffhub/internal/repository"
	"staffhub/internal/service"
	"staffhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	db := config.ConnectionDb()
	validate := validator.New()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	accessSecret := []byte(os.Getenv("JWT_SECRET"))
	issuer := os.Getenv("JWT_ISSUER")
	if len(accessSecret) == 0 {
		logger.Fatal("JWT_SECRET is required")
	}

	accessManager := utils.JWTManager{
		Secret:         accessSecret,
		Issuer:         issuer,
		AccessTokenTTL: 15 * time.Minute,
	}
	accessIssuer := service.JWTAccessIssuer{Manager: &accessManager}

	pendingSecret := os.Getenv("PENDING_JWT_SECRET")
	if pendingSecret == "" {
		pendingSecret = os.Getenv("JWT_SECRET")
	}
	pendingIssuer := service.PendingTokenIssuerJWT{
		Secret: []byte(pendingSecret),
		Issuer: issuer,
		TTL:    10 * time.Minute,
	}

	mediaDir := os.Getenv("MEDIA_DIR")
	if mediaDir == "" {
		mediaDir = "media"
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	codeRepo := repository.NewTwoFactorCodeRepository(db)
	verificationRepo := repository.NewVerificationTokenRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	passwordHasher := service.BcryptPasswordHasher{}
	clock := service.RealClock{}

	notifier := service.NewResendCodeNotifier(
		os.Getenv("RESEND_API_KEY"),
		os.Getenv("MAIL_FROM"),
		os.Getenv("APP_BASE_URL"),
	)

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		codeRepo,
		verificationRepo,
		securityRepo,
		notifier,
		passwordHasher,
		accessIssuer,
		pendingIssuer,
		clock,
		service.AuthConfig{
			RefreshTokenTTL: 30 * 24 * time.Hour,
			CodeTTL:         10 * time.Minute,
			ResetTokenTTL:   30 * time.Minute,
		},
	)
	employeeService := service.NewEmployeeService(employeeRepo, userRepo, passwordHasher, clock)
	exportService := service.NewExportService(employeeRepo)
	backupService := service.NewBackupService(userRepo, employeeRepo, codeRepo, mediaDir, clock)

	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	authHandler.SecureCookies = os.Getenv("COOKIE_SECURE") != "false"

	employeeHandler := handler.NewEmployeeHandler(employeeService, authService, validate, mediaDir)
	exportHandler := handler.NewExportHandler(exportService, backupService)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.Router{
		Auth:      authHandler,
		Employees: employeeHandler,
		Exports:   exportHandler,
		AuthMW:    apiMiddleware.AuthMiddleware{JWT: &accessManager},
		Limiter:   apiMiddleware.NewRateLimiter(rate.Every(time.Second), 10, 10*time.Minute),
	}
	router.Register(app)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionRepo.CleanupExpired(context.Background(), time.Now()); err != nil {
				logger.WithError(err).Warn("session cleanup failed")
			}
		}
	}()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", addr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
