package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/config"
	"github.com/gdg-garage/con-registration-api/internal/database"
	"github.com/gdg-garage/con-registration-api/internal/handlers"
	"github.com/gdg-garage/con-registration-api/internal/lock"
	"github.com/gdg-garage/con-registration-api/internal/notifier"
	"github.com/gdg-garage/con-registration-api/internal/session"
	"github.com/gdg-garage/con-registration-api/pkg/logging"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel)

	// Connect to Database
	db := database.Connect(cfg)

	// Badge numbering lock, shared between instances when Redis is configured
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		locker = lock.NewRedis(client)
	}

	store := session.NewStore(db, locker, cfg.Policy())

	dg, err := notifier.NewDiscordSession(cfg.DiscordBotToken)
	if err != nil {
		slog.Warn("Discord notifier not initialized", "error", err)
	}
	if dg != nil {
		dn := notifier.NewDiscordNotifier(dg, cfg.DiscordNotificationsChannelID)
		store.AfterFlush(notifier.Hook(dn))
		store.OnClose(notifier.ExhaustedHook(dn))
	}

	authHandler := auth.NewAuthHandler(cfg, db, dg)

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg, handlers.NewHandlers(db, store, authHandler))

	// Start Server
	slog.Info("Starting server", "port", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
