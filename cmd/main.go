package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"storefront/cache"
	"storefront/config"
	"storefront/controllers"
	"storefront/database"
	"storefront/logging"
	"storefront/routes"
	"storefront/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info").Error("load config", "error", err)
		return err
	}
	logging.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db  *database.DB
		rdb *redis.Client
	)
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	g, gctx := errgroup.WithContext(connectCtx)
	g.Go(func() error {
		var err error
		db, err = database.ConnectMongo(gctx, cfg.Mongo.URI, cfg.Mongo.DBName)
		return err
	})
	g.Go(func() error {
		var err error
		rdb, err = cache.NewClient(gctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		return err
	})
	err = g.Wait()
	if err == nil {
		err = db.EnsureIndexes(connectCtx)
	}
	cancel()
	defer closeAll(db, rdb)
	if err != nil {
		return err
	}

	users := database.NewUserStore(db.Database)
	products := database.NewProductStore(db.Database)
	carts := database.NewCartStore(db.Database)
	orders := database.NewOrderStore(db.Database)
	tx := database.NewTxRunner(db.Client, cfg.Mongo.Transactions)
	blacklist := cache.NewTokenBlacklist(rdb)

	authSvc := services.NewAuthService(users, services.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TokenTTL), blacklist)
	secureCookie := cfg.GinMode == gin.ReleaseMode

	handlers := routes.Handlers{
		Auth:     controllers.NewAuthController(authSvc, cfg.RequestTimeout, secureCookie),
		Profile:  controllers.NewProfileController(services.NewProfileService(users), cfg.RequestTimeout),
		Products: controllers.NewProductController(services.NewProductService(products), cfg.RequestTimeout),
		Cart:     controllers.NewCartController(services.NewCartService(carts, products), cfg.RequestTimeout),
		Orders: controllers.NewOrderController(
			services.NewOrderService(orders, carts, products, users, tx, services.NewPricing(cfg.Pricing)),
			cfg.RequestTimeout,
		),
		Health: controllers.NewHealthController(map[string]controllers.Pinger{
			"mongo": db,
			"redis": blacklist,
		}, 2*time.Second),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(handlers, authSvc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr, "transactions", cfg.Mongo.Transactions)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func closeAll(db *database.DB, rdb *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if db != nil {
		if err := db.Disconnect(ctx); err != nil {
			slog.Warn("mongo disconnect", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Warn("redis close", "error", err)
		}
	}
}
