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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/handler"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/postgres"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to initialize storage", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "driver", cfg.DBDriver)

	engine := ledger.New(store)
	expenses := service.NewExpenseService(store, engine)
	settlements := service.NewSettlementService(store, engine)
	groups := service.NewGroupService(store)

	expenseHandler := handler.NewExpenseHandler(expenses)
	settlementHandler := handler.NewSettlementHandler(settlements)
	groupHandler := handler.NewGroupHandler(groups)
	balanceHandler := handler.NewBalanceHandler(engine)

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.Metrics(h))
	}

	handle("POST /api/v1/expenses", expenseHandler.Create)
	handle("GET /api/v1/expenses", expenseHandler.ListMine)
	handle("PUT /api/v1/expenses/{id}", expenseHandler.Update)
	handle("DELETE /api/v1/expenses/{id}", expenseHandler.Delete)

	handle("POST /api/v1/settlements", settlementHandler.Create)
	handle("GET /api/v1/settlements", settlementHandler.ListMine)

	handle("POST /api/v1/groups", groupHandler.Create)
	handle("GET /api/v1/groups", groupHandler.List)
	handle("GET /api/v1/groups/{id}", groupHandler.Get)
	handle("PUT /api/v1/groups/{id}", groupHandler.Update)
	handle("DELETE /api/v1/groups/{id}", groupHandler.Delete)
	handle("POST /api/v1/groups/{id}/members", groupHandler.AddMembers)
	handle("GET /api/v1/groups/{id}/expenses", expenseHandler.ListByGroup)
	handle("GET /api/v1/groups/{id}/settlements", settlementHandler.ListByGroup)
	handle("GET /api/v1/groups/{id}/balances", balanceHandler.GroupNetPositions)
	handle("GET /api/v1/groups/{id}/simplify", balanceHandler.SimplifyGroup)

	handle("GET /api/v1/balances", balanceHandler.Balances)
	handle("GET /api/v1/balances/net", balanceHandler.NetBalance)
	handle("GET /api/v1/simplify", balanceHandler.SimplifyGlobal)

	mux.HandleFunc("GET /healthz", handler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Logging(middleware.Recovery(mux)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required for postgres driver")
		}
		return postgres.New(cfg.DatabaseURL)
	case "sqlite":
		return sqlite.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
