package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/baharkarakas/autotopup-backend/internal/api"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/config"
	"github.com/baharkarakas/autotopup-backend/internal/logger"
	"github.com/baharkarakas/autotopup-backend/internal/metrics"
)

func main() {
	configPath := kingpin.Flag("config", "Path to the application config file").Short('c').Envar("BANK_CONFIG").String()
	kingpin.Parse()

	k, cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.IsProd() {
		k.Print()
	}

	zl, err := logger.NewZap("categorizer", cfg.Logger.Level)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() {
		_ = zl.Sync()
	}()

	decimal.MarshalJSONWithoutQuotes = true
	metrics.InitCategorizer()

	engine := categorizer.NewEngine(categorizer.DefaultRules(cfg.Categorizer.LargeAmount()))
	srv := &http.Server{
		Addr:              ":" + cfg.Categorizer.Port,
		Handler:           api.NewCategorizerRouter(engine, zl),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("categorizer starting", zap.String("port", cfg.Categorizer.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
