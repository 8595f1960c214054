package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warningbypass/warningweb/internal/app"
	"github.com/warningbypass/warningweb/internal/config"
	"github.com/warningbypass/warningweb/internal/database"
)

// serverCmd starts the HTTP server. It loads configuration, establishes
// database connections, wires the application together, and serves until
// interrupted.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the WarningWeb HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			slog.Error("failed to load config", slog.Any("error", err))
			os.Exit(1)
		}

		setupLogging(cfg)

		slog.Info("starting warningweb",
			slog.String("env", cfg.Env),
			slog.Int("port", cfg.Port),
		)

		db, err := database.NewMariaDB(cfg.Database)
		if err != nil {
			slog.Error("failed to connect to MariaDB", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("connected to MariaDB")

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
				slog.Error("failed to run migrations", slog.Any("error", err))
				os.Exit(1)
			}
		}

		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to Redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rdb.Close()
		slog.Info("connected to Redis")

		application, err := app.New(cfg, db, rdb)
		if err != nil {
			slog.Error("failed to build application", slog.Any("error", err))
			os.Exit(1)
		}

		application.RegisterRoutes()

		// Graceful shutdown: drain in-flight requests on SIGINT/SIGTERM so
		// container restarts are seamless.
		go func() {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			slog.Info("shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := application.Echo.Shutdown(ctx); err != nil {
				slog.Error("server forced shutdown", slog.Any("error", err))
			}
			application.Close()
		}()

		if err := application.Start(); err != nil {
			// Echo returns http.ErrServerClosed on graceful shutdown.
			slog.Info("server stopped", slog.Any("reason", err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	slog.SetDefault(slog.New(handler))
}
