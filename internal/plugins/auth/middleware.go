package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/idle"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeySession = "auth_session"
	contextKeyUserID  = "auth_user_id"
)

// RequireAuth returns middleware that validates the session cookie,
// injects session data into the request context, and feeds the idle
// monitor. Requests with a missing or invalid session get a 401.
func RequireAuth(service AuthService, monitor *idle.Monitor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return handleUnauthenticated(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				if monitor != nil {
					monitor.Forget(token)
				}
				return handleUnauthenticated(c)
			}

			// Every authenticated request counts as activity.
			if monitor != nil {
				monitor.Touch(token)
			}

			// Store session data in context for downstream handlers.
			c.Set(contextKeySession, session)
			c.Set(contextKeyUserID, session.UserID)

			return next(c)
		}
	}
}

// handleUnauthenticated returns a JSON 401; the storefront frontend
// handles its own redirect to the login view.
func handleUnauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": "authentication required",
	})
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetSessionToken exposes the raw session token for handlers that need
// to address idle tracking (the token doubles as the monitor key).
func GetSessionToken(c echo.Context) string {
	return getSessionToken(c)
}
