package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unmanned-retail/store-service/internal/catalog"
	"github.com/unmanned-retail/store-service/internal/config"
	"github.com/unmanned-retail/store-service/internal/db"
	"github.com/unmanned-retail/store-service/internal/events"
	storeHttp "github.com/unmanned-retail/store-service/internal/handler/http"
	"github.com/unmanned-retail/store-service/internal/seed"
	"github.com/unmanned-retail/store-service/internal/shopping"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "store-service").Logger()

	log.Info().Msg("Store service starting...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dbConn, err := db.New(cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	catalogRepo := catalog.NewRepository(dbConn.Pool)
	catalogSvc := catalog.NewService(catalogRepo)

	sessionRepo := shopping.NewRepository(dbConn.Pool)
	publisher := events.NewLogPublisher()
	shoppingSvc := shopping.NewService(sessionRepo, catalogRepo, publisher)

	if cfg.App.SeedData {
		if err := seed.Run(context.Background(), catalogRepo, shoppingSvc); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed sample data")
		}
	}

	productHandler := storeHttp.NewProductHandler(catalogSvc)
	shoppingHandler := storeHttp.NewShoppingHandler(shoppingSvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Route("/api", func(r chi.Router) {
		productHandler.RegisterRoutes(r)
		shoppingHandler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}

	log.Info().Msg("Store service stopped gracefully")
}
