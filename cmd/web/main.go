package main

import (
	"context"
	"log"
	"os"
	"time"

	"log/slog"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"merchantry.io/app/internal/config"
	"merchantry.io/app/internal/events"
	apphttp "merchantry.io/app/internal/http"
	"merchantry.io/app/internal/http/handlers"
	"merchantry.io/app/internal/mailer"
	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/internal/modules/email"
	"merchantry.io/app/internal/modules/idempotency"
	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/modules/payments"
	"merchantry.io/app/internal/modules/pricing"
	"merchantry.io/app/internal/modules/receipts"
	"merchantry.io/app/internal/storage"
	"merchantry.io/app/pkg/metrics"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cache := idempotency.NewRedisCache(rdb)
	idemTTL := time.Duration(cfg.IdempotencyTTLHours) * time.Hour

	store := orders.NewGormStore(db)
	calc := pricing.NewCalculator(catalog.NewRepo(db))

	// TODO: swap the mock gateway for the Stripe client once the account is provisioned
	gateway := payments.NewMockGateway()
	validator := payments.NewValidator(gateway, store, cache).WithTTL(idemTTL)

	svc := orders.NewService(calc, validator, store, cache, gateway.Name()).
		WithIdempotencyTTL(idemTTL).
		WithMetrics(metrics.NewCheckoutMetrics(nil))

	publisher := events.NewPublisher(cfg.Kafka.BrokersCSV, cfg.Kafka.OrderTopic)
	if publisher.Enabled() {
		defer publisher.Close()
		svc = svc.WithEvents(publisher)
	}

	blob, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	logger.Info("storage ready", "driver", blob.Driver)
	receiptSvc := receipts.NewService(blob.Storage)

	var confirm *email.ConfirmationService
	if cfg.SMTP.Host != "" {
		confirm = email.NewConfirmationService(
			mailer.NewSMTPMailer(cfg.SMTP),
			cfg.SMTP.FromName, cfg.SMTP.FromAddress, cfg.BaseURL,
		)
	}

	r := apphttp.NewRouter(logger, apphttp.RouterDeps{
		Checkout: handlers.NewCheckoutHandler(svc, receiptSvc, confirm),
		Orders:   handlers.NewOrdersHandler(orders.NewRepo(db)),
	})

	logger.Info("listening", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
