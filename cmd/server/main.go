package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/router"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title       Triple T's Rewards API
// @version     1.0
// @BasePath    /v1
// @securityDefinitions.apikey BearerAuth
// @in          header
// @name        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL, cfg.AutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker handlers are wired here so the pool sees all infrastructure.
	mailer := infra.NewMailer(cfg)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, outgoing email is logged only")
	}
	emailWorker := worker.NewEmailWorker(mailer, cfg.ReceiptStoragePath)
	worker.StartWorkerPool(ctx, rdb, map[string]worker.Handler{
		worker.JobEmail: emailWorker.Process,
	}, cfg.WorkerPoolSize)

	breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("ebay"))
	catalog := infra.NewEbayClient(infra.EbayConfig{
		APIURL:        cfg.EbayAPIURL,
		OAuthURL:      cfg.EbayOAuthURL,
		ClientID:      cfg.EbayClientID,
		ClientSecret:  cfg.EbayClientSecret,
		MarketplaceID: cfg.EbayMarketplace,
		Timeout:       cfg.CatalogTimeout,
	}, breaker)

	events := infra.NewEventPublisher(cfg.RabbitMQURL, cfg.OrderQueue)
	defer events.Close()
	if !events.Enabled() {
		log.Info().Msg("RABBITMQ_URL not set, order events disabled")
	}

	worker.StartMaintenanceCron(ctx, worker.MaintenanceConfig{
		Accounts:      repository.NewAccountRepository(db),
		Interval:      cfg.MaintenanceInterval,
		ResetTokenTTL: cfg.ResetTokenTTL,
		Catalog:       breaker,
	})

	r := router.New(ctx, cfg, router.Deps{
		DB:             db,
		Redis:          rdb,
		Catalog:        catalog,
		CatalogBreaker: breaker,
		Events:         events,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("rewards backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
