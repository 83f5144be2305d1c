package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Request-scoped identity, set by RequireAuth once the bearer token checks
// out. Handlers read it back through the typed accessors below.
const (
	ctxKeyUserID    = "staffhub.user_id"
	ctxKeyRole      = "staffhub.role"
	ctxKeySessionID = "staffhub.session_id"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, role string, sessionID uuid.UUID) {
	c.Set(ctxKeyUserID, userID)
	c.Set(ctxKeyRole, role)
	c.Set(ctxKeySessionID, sessionID)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(ctxKeyUserID).(uuid.UUID)
	return userID, ok
}

func RoleFromContext(c echo.Context) (string, bool) {
	role, ok := c.Get(ctxKeyRole).(string)
	return role, ok
}

func SessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	sessionID, ok := c.Get(ctxKeySessionID).(uuid.UUID)
	return sessionID, ok
}
