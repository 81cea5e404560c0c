package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blackjack-house-go/backend/internal/config"
	"blackjack-house-go/backend/internal/database"
	"blackjack-house-go/backend/internal/escrow"
	"blackjack-house-go/backend/internal/handlers"
	"blackjack-house-go/backend/internal/ledger/devchain"
	"blackjack-house-go/backend/internal/middleware"
	"blackjack-house-go/backend/internal/payout"
	"blackjack-house-go/backend/internal/store"
	"blackjack-house-go/backend/internal/tracing"
	"blackjack-house-go/backend/pkg/websocket"

	charmlog "github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "blackjack-house"

func main() {
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          serviceName,
	})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("config", "error", err)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName: serviceName,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		logger.Fatal("tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracing shutdown", "error", err)
		}
	}()

	var backing store.Store
	if cfg.DatabasePath != "" {
		db, err := database.OpenAndMigrate(cfg.DatabasePath)
		if err != nil {
			logger.Fatal("db open/migrate", "error", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("db close", "error", err)
			}
		}()
		backing = store.NewSQLite(db)
		logger.Info("round store", "backend", "sqlite", "path", cfg.DatabasePath)
	} else {
		backing = store.NewMemory()
		logger.Info("round store", "backend", "memory")
	}
	rounds := store.NewRounds(backing)

	chain := devchain.New(cfg.HouseSeed)
	logger.Info("house wallet", "address", chain.HouseAddress())

	gate := escrow.NewGate(chain, chain.HouseAddress(), cfg.MemoPrefix)
	dispatcher := payout.NewDispatcher(chain, rounds)

	hub := websocket.NewHub()
	go hub.Run()
	roundHub := handlers.NewRoundHub(hub)

	janitor := store.NewJanitor(backing, quartz.NewReal(), cfg.JanitorInterval, cfg.RoundRetention, logger)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go janitor.Run(janitorCtx)

	handlers.SetWebSocketOriginPolicy(cfg.AppEnv == "development", cfg.WSAllowedOrigins)

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.DevCORS(cfg))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	api := r.Group("/api")
	handlers.RegisterAuthRoutes(api, cfg)
	handlers.RegisterWalletRoutes(api, chain, chain, chain)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg))
	handlers.RegisterRoundRoutes(protected, rounds, gate, dispatcher, roundHub, cfg)

	// WebSocket endpoint is auth-gated via token query param, cookie, or
	// Authorization header.
	r.GET("/ws", handlers.WebSocketHandler(hub, rounds, cfg))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	stopJanitor()
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}
