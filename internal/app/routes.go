package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/metrics"
	"github.com/warningbypass/warningweb/internal/middleware"
	"github.com/warningbypass/warningweb/internal/plugins/activity"
	"github.com/warningbypass/warningweb/internal/plugins/auth"
	"github.com/warningbypass/warningweb/internal/plugins/cart"
	"github.com/warningbypass/warningweb/internal/plugins/catalog"
	"github.com/warningbypass/warningweb/internal/plugins/checkout"
	"github.com/warningbypass/warningweb/internal/plugins/profile"
	"github.com/warningbypass/warningweb/internal/plugins/stats"
	"github.com/warningbypass/warningweb/internal/templates/pages"
)

// RegisterRoutes attaches every route to the Echo instance: the rendered
// landing page, operational endpoints, and each plugin's API group.
func (a *App) RegisterRoutes() {
	e := a.Echo

	e.GET("/", func(c echo.Context) error {
		return middleware.Render(c, http.StatusOK, pages.Landing(a.Config.SPAOrigin))
	})

	e.GET("/healthz", a.healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(a.Registry)))

	requireAuth := auth.RequireAuth(a.authService, a.Monitor)

	authHandler := auth.NewHandler(a.authService, a.oauthService, a.Monitor, a.Config.Auth.SessionTTL, a.Config.SPAOrigin)
	auth.RegisterRoutes(e, authHandler)

	profile.RegisterRoutes(e, profile.NewHandler(a.profileService), requireAuth)
	activity.RegisterRoutes(e, activity.NewHandler(a.activityService), requireAuth)
	stats.RegisterRoutes(e, stats.NewHandler(a.statsService), requireAuth)
	catalog.RegisterRoutes(e, catalog.NewHandler(a.catalogService), requireAuth)

	cartHandler := cart.NewHandler(a.cartService, !a.Config.IsDevelopment())
	cart.RegisterRoutes(e, cartHandler)
	checkout.RegisterRoutes(e, checkout.NewHandler(a.checkoutService, cartHandler), a.Config.IsDevelopment())
}

// healthz reports liveness plus the health of both backing stores.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	status := http.StatusOK
	checks := map[string]string{"database": "ok", "redis": "ok"}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
