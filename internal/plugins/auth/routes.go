package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/middleware"
)

// RegisterRoutes sets up all auth routes on the given Echo instance.
// Auth routes are public (no session required) -- the RequireAuth
// middleware is exported separately for other plugins to use on their
// route groups.
//
// POST endpoints are rate-limited per IP to blunt brute-force and
// credential-stuffing traffic. This is on top of the per-email lockout
// inside the service.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/auth")

	g.POST("/signup", h.SignUp, middleware.RateLimit(5, time.Minute))
	g.POST("/signin", h.SignIn, middleware.RateLimit(10, time.Minute))
	g.POST("/login", h.SignInOrSignUp, middleware.RateLimit(10, time.Minute))
	g.POST("/signout", h.SignOut)
	g.GET("/session", h.Session)

	g.POST("/forgot-password", h.ForgotPassword, middleware.RateLimit(5, time.Minute))
	g.GET("/reset-password", h.ValidateResetToken)
	g.POST("/reset-password", h.ResetPassword, middleware.RateLimit(5, time.Minute))

	g.GET("/discord", h.DiscordBegin)
	g.GET("/discord/callback", h.DiscordCallback)
}
