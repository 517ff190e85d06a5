package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse-be/internal/auth"
	"warehouse-be/internal/config"
	"warehouse-be/internal/customer"
	"warehouse-be/internal/db"
	"warehouse-be/internal/document"
	"warehouse-be/internal/events"
	"warehouse-be/internal/httpapi"
	"warehouse-be/internal/idempotency"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/order"
	"warehouse-be/internal/user"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router, cleanup, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := ":" + cfg.AppPort
	logger.L().Info("http server running", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(addr, router)
}

// newServer wires every collaborator. The returned cleanup closes the ones
// that hold connections.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	missing, err := inventory.ParseMissingPolicy(cfg.InventoryMissingPolicy)
	if err != nil {
		return nil, nil, err
	}

	var closers []func() error

	reg := metrics.NewRegistry()
	closers = append(closers, func() error { return reg.Shutdown(context.Background()) })
	tx := db.NewSQLTransactor(database)

	stock := inventory.NewRepository(database)
	inventorySvc := inventory.NewService(stock, tx)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		publisher = kp
		closers = append(closers, kp.Close)
	} else {
		logger.L().Warn("KAFKA_BROKERS not set, order events are disabled")
	}

	var renderer document.Renderer
	if cfg.RendererURL != "" {
		renderer = document.NewHTTPRenderer(cfg.RendererURL)
	}

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		rdb := idempotency.NewRedisClient(cfg.RedisAddr)
		idem = idempotency.NewRedisStore(rdb, idempotency.DefaultTTL)
		closers = append(closers, rdb.Close)
	}

	orderSvc := order.NewService(order.Deps{
		Repo:      order.NewRepository(database),
		Ledger:    stock,
		Tx:        tx,
		Customers: customer.NewRepository(database),
		Users:     user.NewRepository(database),
		Publisher: publisher,
		Renderer:  renderer,
		Metrics:   reg,
		Missing:   missing,
	})

	if cfg.JWTSecret == "" {
		logger.L().Warn("JWT_SECRET is empty, every token will be rejected")
	}

	h := httpapi.NewHandler(orderSvc, inventorySvc, idem, reg)
	router := httpapi.NewRouter(h, auth.Authenticate([]byte(cfg.JWTSecret)))

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.L().Warn("failed to close collaborator", zap.Error(err))
			}
		}
	}
	return router, cleanup, nil
}

func startServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L().Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
