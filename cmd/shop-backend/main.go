package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/internal/checkout"
	"github.com/vasiliy-maslov/shop-backend/internal/config"
	"github.com/vasiliy-maslov/shop-backend/internal/download"
	"github.com/vasiliy-maslov/shop-backend/internal/handler"
	"github.com/vasiliy-maslov/shop-backend/internal/invoice"
	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
	"github.com/vasiliy-maslov/shop-backend/internal/notify"
	"github.com/vasiliy-maslov/shop-backend/internal/order"
	"github.com/vasiliy-maslov/shop-backend/internal/payment"
	"github.com/vasiliy-maslov/shop-backend/internal/transport"
	"github.com/vasiliy-maslov/shop-backend/internal/webhook"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "shop-backend").Logger()

	log.Info().Msg("Shop backend starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	cat, err := catalog.Load(cfg.Shop.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load product catalog")
	}
	log.Info().Int("products", cat.Len()).Msg("Product catalog loaded")

	store, closeStore, err := newLedgerStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger store")
	}
	defer closeStore()

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		Currency:      cfg.Stripe.Currency,
	})
	notifier := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	pricer := order.NewPricer(cfg.Shop.HomeShippingCost)
	builder := order.NewBuilder(cat, pricer)
	allocator := invoice.NewAllocator(store, cfg.Shop.InvoicePrefix)
	renderer := invoice.NewRenderer(invoice.Seller{
		Name:    cfg.Shop.SellerName,
		Address: cfg.Shop.SellerAddress,
		TaxID:   cfg.Shop.SellerTaxID,
	}, cfg.Stripe.Currency)
	tokens := download.NewService(store)

	checkoutSvc := checkout.NewService(builder, pricer, allocator, gateway)
	reconciler := webhook.NewReconciler(webhook.ReconcilerDeps{
		Store:    store,
		Gateway:  gateway,
		Tokens:   tokens,
		Renderer: renderer,
		Notifier: notifier,
		Catalog:  cat,
		BaseURL:  cfg.App.BaseURL,
		Detach:   true,
	})

	router := transport.NewRouter(
		handler.NewCheckoutHandler(checkoutSvc),
		handler.NewDownloadHandler(tokens, cat, cfg.Shop.DownloadDir),
		webhook.NewHandler(gateway, reconciler),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func newLedgerStore(cfg *config.Config) (ledger.Store, func(), error) {
	switch cfg.Ledger.Backend {
	case "postgres":
		store, err := ledger.NewPostgresStore(context.Background(), ledger.PostgresConfig{
			Host:           cfg.Postgres.Host,
			Port:           cfg.Postgres.Port,
			User:           cfg.Postgres.User,
			Password:       cfg.Postgres.Password,
			DBName:         cfg.Postgres.DBName,
			SSLMode:        cfg.Postgres.SSLMode,
			MigrationsPath: cfg.Postgres.MigrationsPath,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "sheets":
		store, err := ledger.NewSheetsStore(context.Background(), cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		log.Warn().Str("backend", cfg.Ledger.Backend).Msg("Using in-memory ledger, orders will not survive a restart")
		return ledger.NewMemoryStore(), func() {}, nil
	}
}
