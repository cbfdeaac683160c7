package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/api"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/config"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/geofence"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/ingestion"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/janitor"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/logging"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/notify"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broadcaster for user-facing notification streaming
	broadcaster := notify.NewBroadcaster()

	// Geofence monitor owns the sweep loop and the alert lifecycle
	monitor := geofence.NewMonitor(cfg.Monitor, db, db, db, broadcaster)
	monitor.Start(ctx)

	// Telemetry intake drives event-triggered re-sweeps
	mgr := ingestion.NewManager(cfg, db, monitor)
	mgr.Start(ctx)

	// Scheduled purge of finished alerts
	jan := janitor.New(cfg.Janitor, db)
	if err := jan.Start(); err != nil {
		logging.Fatalf("Failed to start janitor: %v", err)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.API.RateLimitRPS))

	handler := api.NewHandler(monitor, db, db, mgr, broadcaster)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	// Unblock SSE streams, then drain HTTP before the ingestion pool
	// closes its jobs channel, so no in-flight telemetry request
	// submits to a closed pool.
	broadcaster.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	monitor.Stop()
	mgr.Stop()
	jan.Stop()

	slog.Info("shutdown complete")
}
