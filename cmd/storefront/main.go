package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/parsifal-shop/storefront-client/internal/cart"
	"github.com/parsifal-shop/storefront-client/internal/catalog"
	"github.com/parsifal-shop/storefront-client/pkg/config"
	"github.com/parsifal-shop/storefront-client/pkg/kvstore"
	"github.com/parsifal-shop/storefront-client/pkg/logger"
	"github.com/parsifal-shop/storefront-client/pkg/rest"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	ctx := context.Background()

	store, err := kvstore.OpenFile(cfg.State.Path)
	if err != nil {
		logg.Error(ctx, "failed to open local state store", err)
		os.Exit(1)
	}

	client, err := rest.NewClient(rest.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build api client", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}

	engine, err := cart.NewEngine(client, store, logg)
	if err != nil {
		logg.Error(ctx, "failed to build cart engine", err)
		os.Exit(1)
	}

	ctx = logg.WithSessionID(ctx, engine.SessionID())

	engine.OnCountChange(func(count int) {
		logg.Info(logg.WithField(ctx, "count", count), "cart count changed")
	})

	products, err := catalogSvc.Products(ctx, nil)
	if err != nil {
		logg.Error(ctx, "failed to load products", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "products", len(products)), "catalog loaded")

	if err := engine.Reload(ctx); err != nil {
		logg.Error(ctx, "failed to load cart", err)
		os.Exit(1)
	}

	fmt.Printf("session %s: %d products in catalog, %d items in cart\n",
		engine.SessionID(), len(products), engine.Count())
}
