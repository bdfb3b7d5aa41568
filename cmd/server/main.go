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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kmazurov/storefront/internal/assets"
	"github.com/kmazurov/storefront/internal/config"
	"github.com/kmazurov/storefront/internal/es"
	"github.com/kmazurov/storefront/internal/handlers"
	"github.com/kmazurov/storefront/internal/logging"
	"github.com/kmazurov/storefront/internal/middleware/csrf"
	loggingmw "github.com/kmazurov/storefront/internal/middleware/logging"
	"github.com/kmazurov/storefront/internal/mykafka"
	"github.com/kmazurov/storefront/internal/payment"
	"github.com/kmazurov/storefront/internal/service/token"
	httpserver "github.com/kmazurov/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	db, err := config.InitDB(ctx, configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod := &mykafka.Producer{}
	if configuration.KAFKA_ADDRESS != "" {
		prod, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("kafka address not set, events will not be published")
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	var imageStore assets.Store
	if configuration.CLOUDINARY_URL != "" {
		store, err := assets.NewCloudinaryStore(configuration.CLOUDINARY_URL)
		if err != nil {
			log.Fatal(err)
		}
		imageStore = store
	} else {
		logger.Warn("cloudinary url not set, image uploads disabled")
	}

	gateway := payment.NewRazorpayGateway(configuration.RAZORPAY_KEY_ID, configuration.RAZORPAY_KEY_SECRET)
	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrf.Config{
		SkipPaths: []string{"/api/auth/register", "/api/auth/login", "/api/auth/refresh"},
	}))

	deps := httpserver.Deps{
		DB:             db,
		JWTSecret:      jwtSecret,
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod, Tokens: tokens},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{DB: db, Producer: prod},
		UserHandler:    &handlers.UserHandler{DB: db, Assets: imageStore, Producer: prod},
		AddressHandler: &handlers.AddressHandler{DB: db},
		PaymentHandler: &handlers.PaymentHandler{DB: db, Gateway: gateway, KeyID: configuration.RAZORPAY_KEY_ID, KeySecret: []byte(configuration.RAZORPAY_KEY_SECRET), Producer: prod},
		InvoiceHandler: &handlers.InvoiceHandler{DB: db},
		UploadHandler:  &handlers.UploadHandler{Assets: imageStore},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "product"},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
