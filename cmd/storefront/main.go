package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()
	l := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, closeStore, err := storage.Open(initCtx, cfg.Storage)
	cancel()
	if err != nil {
		l.Error("storage_init_error", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	persist := storage.NewPersistence(store, l.With("component", "storage"))

	client := apiclient.NewClient(cfg.APIURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithTokenSource(func(ctx context.Context) string {
			token, _ := persist.ReadString(ctx, storage.SlotToken)
			return token
		}),
	)

	sessions := session.New(context.Background(), client, persist, session.WithLogger(l.With("component", "session")))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RestoreTimeout)
		defer cancel()
		if err := sessions.Restore(ctx); err != nil {
			l.Warn("session_restore_error", "error", err)
		}
	}()

	shoppingCart := cart.NewStore()
	if cfg.PersistCart {
		shoppingCart.Rehydrate(context.Background(), persist)
		shoppingCart.MirrorTo(persist)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
	}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CSRFSecure
	csrfCfg.TrustedOrigins = cfg.AllowOrigins

	if err := httpserver.Register(e, &httpserver.Deps{
		Logger:       l,
		Session:      sessions,
		Cart:         shoppingCart,
		Checkout:     checkout.New(client, sessions, shoppingCart, l.With("component", "checkout")),
		Catalog:      client,
		Events:       publisher,
		APIURL:       cfg.APIURL,
		AllowOrigins: cfg.AllowOrigins,
		CSRF:         &csrfCfg,
	}); err != nil {
		l.Error("router_init_error", "error", err)
		os.Exit(1)
	}

	go func() {
		l.Info("storefront listening", "addr", cfg.ListenAddr, "api", cfg.APIURL, "storage", cfg.Storage.Driver)
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			l.Error("echo_start_error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("echo_shutdown_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		l.Error("publisher_close_error", "error", err)
	}
	if err := closeStore(); err != nil {
		l.Error("storage_close_error", "error", err)
	}
}
