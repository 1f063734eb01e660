package main

import (
	"context"
	"os/signal"
	"syscall"

	ledgerrepository "github.com/kiribu/money-tracker/internal/ledger/repository"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"github.com/kiribu/money-tracker/internal/pkg/config"
	"github.com/kiribu/money-tracker/internal/pkg/database"
	"github.com/kiribu/money-tracker/internal/pkg/logger"
	"github.com/kiribu/money-tracker/internal/report"
	userrepository "github.com/kiribu/money-tracker/internal/user/repository"
	userservice "github.com/kiribu/money-tracker/internal/user/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := &config.WorkerConfig{}
	config.MustLoadConfig(cfg)

	log := logger.MustNew(cfg.LogLevel)
	defer log.Sync()

	log.Info("Starting report worker", zap.String("schedule", cfg.Reports.Schedule))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.Postgres.DSN()
	if err := database.Migrate(dsn, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	db, err := database.Connect(ctx, dsn, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	publisher, err := report.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, log)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	clk := clock.System{}
	ledgerRepo := ledgerrepository.NewRepository(db, log)
	ledger := ledgerservice.NewService(ledgerRepo, clk, log)
	users := userservice.NewService(userrepository.NewRepository(db, log), clk, log, bcrypt.DefaultCost)
	reports := report.NewService(ledger, users, ledgerRepo, publisher, clk, log)

	scheduler, err := report.NewScheduler(cfg.Reports.Schedule, reports, clk, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}

	if err := scheduler.Run(ctx); err != nil {
		log.Error("Scheduler stopped with error", zap.Error(err))
	}
	log.Info("Report worker stopped")
}
