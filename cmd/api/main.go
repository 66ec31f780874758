package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/plugin/kprom"

	"github.com/baharkarakas/autotopup-backend/internal/api"
	"github.com/baharkarakas/autotopup-backend/internal/auth"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/config"
	"github.com/baharkarakas/autotopup-backend/internal/db"
	"github.com/baharkarakas/autotopup-backend/internal/events"
	"github.com/baharkarakas/autotopup-backend/internal/idempotency"
	"github.com/baharkarakas/autotopup-backend/internal/logger"
	"github.com/baharkarakas/autotopup-backend/internal/metrics"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
	"github.com/baharkarakas/autotopup-backend/internal/repository/memory"
	"github.com/baharkarakas/autotopup-backend/internal/repository/postgres"
	"github.com/baharkarakas/autotopup-backend/internal/seed"
	"github.com/baharkarakas/autotopup-backend/internal/services"
	"github.com/baharkarakas/autotopup-backend/internal/worker"
)

var (
	configFile = kingpin.Flag("config", "Path to the YAML config file").Short('c').Envar("BANK_CONFIG").String()
)

func main() {
	kingpin.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		slog.Error("api stopped", "err", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is done. Every resource it opens is closed before it returns.
func run(ctx context.Context, configPath string) error {
	k, cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)
	if !cfg.IsProd() {
		k.Print()
	}

	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// storage
	var store repo.Store
	if cfg.Database.URL != "" {
		pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		if cfg.Database.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return fmt.Errorf("migrations: %w", err)
			}
		}
		store = postgres.NewStore(pool)
		log.Info("using postgres store")
	} else {
		store = memory.NewStore()
		log.Info("using in-memory store")
	}
	defer store.Close()

	// idempotency keys
	var idem idempotency.Store = idempotency.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb, err := idempotency.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rdb.Close()
		idem = idempotency.NewRedis(rdb, idempotency.DefaultTTL)
	}

	// events
	var (
		pub          events.Publisher = events.NewLogPublisher(log)
		kafkaMetrics http.Handler
	)
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, kprom.NewMetrics("autotopup"))
		if err != nil {
			return fmt.Errorf("kafka client: %w", err)
		}
		pub, kafkaMetrics = kp, kp.MetricsHandler()
	}
	defer pub.Close()

	wp := worker.NewPool(cfg.Workers, 1024)
	defer wp.Stop()

	// categorizer
	var cat categorizer.Categorizer
	if cfg.Categorizer.URL != "" {
		cat = categorizer.NewClient(cfg.Categorizer.URL, cfg.Categorizer.Timeout)
	} else {
		cat = categorizer.NewEngine(categorizer.DefaultRules(cfg.Categorizer.LargeAmount()))
	}

	tm := auth.NewTokenManager(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	svc := services.New(services.Deps{
		Store:              store,
		Categorizer:        cat,
		CategorizerTimeout: cfg.Categorizer.Timeout,
		Idempotency:        idem,
		Emitter:            events.NewEmitter(pub, wp, log),
		Tokens:             tm,
		ManualMode:         cfg.TopUp.ManualMode,
		Log:                log,
	})

	if cfg.Seed.Demo {
		if err := seed.Demo(ctx, store, log); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		RateRPS:      cfg.HTTP.RateRPS,
		Svc:          svc,
		Tokens:       tm,
		Log:          log,
		KafkaMetrics: kafkaMetrics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	default:
		return nil
	}
}
