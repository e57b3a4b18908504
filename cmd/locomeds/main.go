package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theatashaikh/locomeds/internal/assets"
	"github.com/theatashaikh/locomeds/internal/cart"
	"github.com/theatashaikh/locomeds/internal/catalog"
	"github.com/theatashaikh/locomeds/internal/checkout"
	"github.com/theatashaikh/locomeds/internal/config"
	"github.com/theatashaikh/locomeds/internal/coupon"
	"github.com/theatashaikh/locomeds/internal/db"
	"github.com/theatashaikh/locomeds/internal/events"
	"github.com/theatashaikh/locomeds/internal/httpapi"
	"github.com/theatashaikh/locomeds/internal/inventory"
	"github.com/theatashaikh/locomeds/internal/order"
	"github.com/theatashaikh/locomeds/internal/vendor"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveryCharge, err := decimal.NewFromString(cfg.DeliveryCharge)
	if err != nil {
		logger.Fatalf("parse DELIVERY_CHARGE: %v", err)
	}

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	products := catalog.NewPostgresRepository(pool)
	carts := cart.NewPostgresRepository(pool)
	coupons := coupon.NewPostgresRepository(pool)
	vendors := vendor.NewPostgresRepository(pool)
	orders := order.NewPostgresRepository(pool)
	stock := inventory.NewManager(pool)

	assetStore, err := assets.NewDiskStore(cfg.AssetsDir, cfg.AssetsBaseURL)
	if err != nil {
		logger.Fatalf("assets: %v", err)
	}

	// --- AMQP ---
	conn := events.MustDialRabbit(cfg.RabbitURL)
	defer conn.Close()

	publisher, err := events.NewPublisher(conn)
	if err != nil {
		logger.Fatalf("amqp publisher: %v", err)
	}
	defer publisher.Close()

	checkoutSvc := checkout.NewService(checkout.Deps{
		Carts:          carts,
		Products:       products,
		Coupons:        coupons,
		Vendors:        vendors,
		Stock:          stock,
		Assets:         assetStore,
		Committer:      checkout.NewPgCommitter(pool, orders, carts),
		Notifier:       publisher,
		Logger:         logger,
		DeliveryCharge: deliveryCharge,
	})

	// --- HTTP ---
	h := httpapi.NewHandler(httpapi.Deps{
		Checkout: checkoutSvc,
		Orders:   orders,
		Carts:    carts,
		Products: products,
		Coupons:  coupons,
		Vendors:  vendors,
		Events:   publisher,
		Logger:   logger,
		Timeout:  cfg.RequestTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(cfg.AssetsDir))))
	mux.Handle("/", httpapi.NewRouter(h))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	logger.Printf("shutdown complete")
}
