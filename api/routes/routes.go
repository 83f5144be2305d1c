package routes

import (
	"staffhub/api/handler"
	"staffhub/api/middleware"

	"github.com/labstack/echo/v4"
)

type Router struct {
	Auth      *handler.AuthHandler
	Employees *handler.EmployeeHandler
	Exports   *handler.ExportHandler
	AuthMW    middleware.AuthMiddleware
	Limiter   *middleware.RateLimiter
}

// Register mounts all API routes under /api. Login, code verification and
// resend stay outside the rate limiter so repeated attempts behave the same
// as first ones.
func (r Router) Register(e *echo.Echo) {
	api := e.Group("/api")

	throttled := func(h echo.HandlerFunc) echo.HandlerFunc {
		if r.Limiter == nil {
			return h
		}
		return r.Limiter.Middleware()(h)
	}

	auth := api.Group("/auth")
	auth.POST("/register", throttled(r.Auth.Register))
	auth.POST("/login", r.Auth.Login)
	auth.POST("/login/verify", r.Auth.VerifyCode)
	auth.POST("/login/resend", r.Auth.ResendCode)
	auth.POST("/refresh", r.Auth.Refresh)
	auth.POST("/password/forgot", throttled(r.Auth.PasswordForgot))
	auth.POST("/password/reset", r.Auth.PasswordReset)
	auth.POST("/logout", r.Auth.Logout, r.AuthMW.RequireAuth)
	auth.POST("/logout-all", r.Auth.LogoutAll, r.AuthMW.RequireAuth)
	auth.POST("/2fa/toggle", r.Auth.ToggleTwoFactor, r.AuthMW.RequireAuth)

	api.GET("/me", r.Auth.Me, r.AuthMW.RequireAuth)

	adminOnly := middleware.RequireRole("admin")

	employees := api.Group("/employees", r.AuthMW.RequireAuth)
	employees.GET("", r.Employees.List, adminOnly)
	employees.GET("/dashboard", r.Employees.Dashboard)
	employees.POST("", r.Employees.Create, adminOnly)
	employees.POST("/import", throttled(r.Employees.Import), adminOnly)
	employees.DELETE("/clear", r.Employees.ClearAll, adminOnly)
	employees.GET("/:id", r.Employees.Get)
	employees.PUT("/:id", r.Employees.Update, adminOnly)
	employees.DELETE("/:id", r.Employees.Delete, adminOnly)
	employees.POST("/:id/photo", r.Employees.UploadPhoto, adminOnly)
	employees.GET("/export/:format", r.Exports.Export, adminOnly)

	api.GET("/backup", r.Exports.Backup, r.AuthMW.RequireAuth, adminOnly)
	api.GET("/backup/full", r.Exports.FullBackup, r.AuthMW.RequireAuth, adminOnly)
}
