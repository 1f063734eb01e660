package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	adminrepository "github.com/kiribu/money-tracker/internal/admin/repository"
	adminservice "github.com/kiribu/money-tracker/internal/admin/service"
	"github.com/kiribu/money-tracker/internal/gateway/auth"
	"github.com/kiribu/money-tracker/internal/gateway/cache"
	"github.com/kiribu/money-tracker/internal/gateway/handler"
	"github.com/kiribu/money-tracker/internal/gateway/health"
	ledgerrepository "github.com/kiribu/money-tracker/internal/ledger/repository"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"github.com/kiribu/money-tracker/internal/pkg/config"
	"github.com/kiribu/money-tracker/internal/pkg/database"
	"github.com/kiribu/money-tracker/internal/pkg/logger"
	"github.com/kiribu/money-tracker/internal/report"
	"github.com/kiribu/money-tracker/internal/storage/memory"
	userrepository "github.com/kiribu/money-tracker/internal/user/repository"
	userservice "github.com/kiribu/money-tracker/internal/user/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type stores struct {
	ledger      ledgerservice.Store
	users       userservice.Store
	counts      adminservice.CountStore
	suggestions adminservice.SuggestionStore
	emails      report.EmailStore
	pinger      handler.Pinger
	close       func()
}

func main() {
	cfg := &config.APIConfig{}
	config.MustLoadConfig(cfg)

	log := logger.MustNew(cfg.LogLevel)
	defer log.Sync()

	log.Info("Starting MoneyTracker API",
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("grpc_port", cfg.GRPC.Port),
		zap.String("storage", cfg.Storage))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	clk := clock.System{}
	ledger := ledgerservice.NewService(st.ledger, clk, log)
	users := userservice.NewService(st.users, clk, log, cfg.Auth.BcryptCost)
	admin := adminservice.NewService(st.counts, st.suggestions, clk, log)

	publisher := openPublisher(cfg.AMQP, log)
	if closer, ok := publisher.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	reports := report.NewService(ledger, users, st.emails, publisher, clk, log)

	var identities handler.IdentityCache
	if cfg.Redis.Addr != "" {
		c, err := cache.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer c.Close()
		identities = c
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	var verifier auth.Verifier
	if cfg.Auth.DevLogin {
		log.Warn("Development login is enabled: any email address is accepted as a credential")
		verifier = auth.DevVerifier{}
	} else {
		verifier = auth.NewGoogleVerifier(cfg.Auth.GoogleClientID, log)
	}

	h := handler.NewHandler(handler.Deps{
		Ledger:   ledger,
		Users:    users,
		Admin:    admin,
		Reports:  reports,
		Tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL, clk),
		Verifier: verifier,
		Cache:    identities,
		Pinger:   st.pinger,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      h.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	healthSrv := health.NewServer(st.pinger, cfg.GRPC.HealthInterval, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server is running", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return healthSrv.Run(gctx, fmt.Sprintf(":%s", cfg.GRPC.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down MoneyTracker API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("API stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("MoneyTracker API stopped")
}

func openStores(ctx context.Context, cfg *config.APIConfig, log *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("Using in-memory storage: data is lost on restart")
		m := memory.New()
		return &stores{
			ledger:      m,
			users:       m,
			counts:      m,
			suggestions: m,
			emails:      m,
			pinger:      m,
			close:       func() {},
		}, nil
	}

	dsn := cfg.Postgres.DSN()
	if err := database.Migrate(dsn, log); err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, dsn, log)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerrepository.NewRepository(db, log)
	return &stores{
		ledger:      ledgerRepo,
		users:       userrepository.NewRepository(db, log),
		counts:      adminrepository.NewRepository(db, log),
		suggestions: ledgerRepo,
		emails:      ledgerRepo,
		pinger:      ledgerRepo,
		close:       db.Close,
	}, nil
}

// openPublisher falls back to logging email jobs when the broker is unreachable.
func openPublisher(cfg config.AMQPConfig, log *zap.Logger) report.Publisher {
	if cfg.URL == "" {
		return report.NewLogPublisher(log)
	}
	p, err := report.NewAMQPPublisher(cfg.URL, cfg.Exchange, cfg.Queue, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, report emails will only be logged", zap.Error(err))
		return report.NewLogPublisher(log)
	}
	return p
}
