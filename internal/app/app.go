// Package app is the composition root. It wires configuration, database
// and Redis connections, object storage, metrics, and every plugin into
// a running Echo instance. Nothing here contains business logic; it only
// builds and connects the pieces.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/config"
	"github.com/warningbypass/warningweb/internal/idle"
	"github.com/warningbypass/warningweb/internal/loginlimit"
	"github.com/warningbypass/warningweb/internal/mail"
	"github.com/warningbypass/warningweb/internal/metrics"
	"github.com/warningbypass/warningweb/internal/middleware"
	"github.com/warningbypass/warningweb/internal/plugins/activity"
	"github.com/warningbypass/warningweb/internal/plugins/auth"
	"github.com/warningbypass/warningweb/internal/plugins/cart"
	"github.com/warningbypass/warningweb/internal/plugins/catalog"
	"github.com/warningbypass/warningweb/internal/plugins/checkout"
	"github.com/warningbypass/warningweb/internal/plugins/profile"
	"github.com/warningbypass/warningweb/internal/plugins/stats"
	"github.com/warningbypass/warningweb/internal/storage"
	"github.com/warningbypass/warningweb/internal/templates/pages"
)

// App holds the application's long-lived components and services.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	Echo   *echo.Echo

	Registry  *prometheus.Registry
	Collector *metrics.Collector
	Monitor   *idle.Monitor

	authService     auth.AuthService
	oauthService    auth.OAuthService
	profileService  profile.ProfileService
	activityService activity.ActivityService
	statsService    stats.StatsService
	catalogService  catalog.CatalogService
	cartService     cart.CartService
	checkoutService checkout.CheckoutService
}

// New builds the application graph. The DB and Redis connections are
// owned by the caller; everything else is constructed here.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	a := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Registry: prometheus.NewRegistry(),
	}
	a.Collector = metrics.NewCollector(a.Registry)

	// Avatar object storage is optional. A misconfigured MinIO endpoint
	// degrades avatars, not the whole service.
	var store *storage.MinioClient
	if cfg.Storage.Enabled() {
		var err error
		store, err = storage.NewMinioClient(cfg.Storage)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = store.EnsureBucket(ctx)
			cancel()
		}
		if err != nil {
			slog.Error("avatar storage unavailable, continuing without it", "error", err)
			store = nil
		}
	}

	// Repositories and services, leaf-first.
	a.activityService = activity.NewActivityService(activity.NewActivityRepository(db))
	a.statsService = stats.NewStatsService(stats.NewStatsRepository(db))
	a.profileService = profile.NewProfileService(profile.NewProfileRepository(db), store, a.activityService, cfg.Storage)
	a.catalogService = catalog.NewCatalogService(catalog.NewProductRepository(db))

	userRepo := auth.NewUserRepository(db)
	limiter := loginlimit.NewRedisLimiter(rdb, cfg.Security.MaxLoginAttempts, cfg.Security.LockoutDuration)

	a.authService = auth.NewAuthService(auth.Deps{
		Repo:          userRepo,
		Redis:         rdb,
		Limiter:       limiter,
		SessionTTL:    cfg.Auth.SessionTTL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		BaseURL:       cfg.BaseURL,
		Mail:          mail.NewSender(cfg.Mail),
		Metrics:       a.Collector,
		Activity:      a.activityService,
		Stats:         a.statsService,
		Profiles:      a.profileService.(auth.ProfileSyncer),
	})

	if cfg.Discord.Enabled() {
		a.oauthService = auth.NewOAuthService(cfg.Discord, rdb, userRepo, a.authService)
	}

	a.Monitor = idle.NewMonitor(
		cfg.Security.IdleWarning,
		cfg.Security.IdleLogout,
		a.onIdleWarning,
		a.onIdleLogout,
	)

	cartStore := cart.NewStore(rdb)
	a.cartService = cart.NewCartService(cartStore, a.catalogService)
	a.checkoutService = checkout.NewCheckoutService(
		checkout.NewStore(rdb),
		a.cartService,
		cfg.Checkout,
		a.Collector,
		a.activityService,
	)

	a.Echo = a.buildEcho()
	return a, nil
}

// onIdleWarning records that a session has gone quiet. The session stays
// valid; this is telemetry for the dashboard's inactivity banner.
func (a *App) onIdleWarning(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := a.authService.ValidateSession(ctx, token)
	if err != nil {
		return
	}
	a.activityService.Record(ctx, session.UserID, activity.ActionInactivityWarning, nil)
}

// onIdleLogout destroys a session that idled past the logout threshold.
func (a *App) onIdleLogout(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := a.authService.ValidateSession(ctx, token)
	if err != nil {
		return
	}
	if err := a.authService.DestroySession(ctx, token); err != nil {
		slog.Warn("idle logout failed to destroy session", "error", err)
		return
	}
	a.activityService.Record(ctx, session.UserID, activity.ActionAutoLogout, nil)
}

// buildEcho constructs the Echo instance with the global middleware stack.
func (a *App) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	middleware.TrustedProxies(e, a.Config.TrustedProxies)
	e.HTTPErrorHandler = a.errorHandler

	e.Use(middleware.Recovery())
	e.Use(middleware.RequestLogger())
	e.Use(a.Collector.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.SPAOrigin},
		AllowCredentials: true,
	}))
	e.Use(middleware.CSRF())

	return e
}

// errorHandler maps errors to responses: apperror types carry their own
// status and client-safe message; everything else becomes a generic 500.
// API paths get JSON, the rest get a rendered page.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "an unexpected error occurred"
	errType := "internal_error"

	switch e := err.(type) {
	case *apperror.AppError:
		status = e.Code
		message = e.Message
		errType = e.Type
		if e.Internal != nil {
			slog.Error("request failed",
				"path", c.Request().URL.Path,
				"type", e.Type,
				"error", e.Internal,
			)
		}
	case *echo.HTTPError:
		status = e.Code
		if m, ok := e.Message.(string); ok {
			message = m
		}
		errType = http.StatusText(status)
	default:
		slog.Error("unhandled error",
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = c.JSON(status, map[string]any{
			"success": false,
			"error":   map[string]string{"type": errType, "message": message},
		})
		return
	}
	_ = middleware.Render(c, status, pages.ErrorPage(status, message))
}

// Start begins serving HTTP. Blocks until shutdown.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("listening", "addr", addr)
	return a.Echo.Start(addr)
}

// Close releases components the app owns. The DB and Redis connections
// belong to the caller and are not closed here.
func (a *App) Close() {
	a.Monitor.Close()
}
