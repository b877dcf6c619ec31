// Command engine boots the matching engine: one Symbol Engine goroutine
// per configured symbol behind a shared REST/WebSocket gateway.
// Grounded on the teacher's cmd/main.go bootstrap (godotenv, a
// signal.NotifyContext-driven shutdown, a background HTTP server
// goroutine, and a bounded graceful-shutdown window).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/novaclob/matching-engine/internal/config"
	"github.com/novaclob/matching-engine/internal/engine"
	"github.com/novaclob/matching-engine/internal/gateway"
	"github.com/novaclob/matching-engine/internal/journal"
	"github.com/novaclob/matching-engine/internal/metrics"
	"github.com/novaclob/matching-engine/pkg/decimalcodec"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	engineMetrics := metrics.New(reg)

	var journalWriter engine.JournalWriter
	var journalReader journal.Reader
	if cfg.DatabaseDSN != "" {
		pg, err := journal.Open(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("opening journal", zap.Error(err))
		}
		defer pg.Close()
		journalWriter = pg
		journalReader = pg
		logger.Info("journal enabled")
	} else {
		logger.Warn("DATABASE_DSN not set; running without a replay journal")
	}

	feeSchedule := engine.NewFeeSchedule(engine.FeeScheduleConfig{
		QuoteCurrency: cfg.QuoteCurrency,
		Tiers:         cfg.FeeTiers,
	})

	registry := gateway.NewRegistry()
	for _, sym := range cfg.Symbols {
		symEngine := engine.NewSymbolEngine(engine.SymbolEngineConfig{
			Symbol:   sym.Symbol,
			Spec:     sym.Spec,
			Fees:     feeSchedule,
			InboxCap: cfg.InboxCap,
			Journal:  journalWriter,
			Metrics:  engineMetrics,
			Logger:   logger,
		})

		if journalReader != nil {
			batches, err := journalReader.Replay(rootCtx, sym.Symbol, 0)
			if err != nil {
				logger.Fatal("replaying journal", zap.String("symbol", sym.Symbol), zap.Error(err))
			}
			symEngine.Restore(batches)
		}
		go symEngine.Run(rootCtx)

		codec := gateway.SymbolCodec{Symbol: sym.Symbol, Codec: decimalcodec.New(sym.PriceDecimals, sym.QuantityDecimals)}
		registry.Add(sym.Symbol, symEngine, codec)
		logger.Info("symbol engine started", zap.String("symbol", sym.Symbol))
	}

	var jwtMaker *gateway.JWTMaker
	if cfg.JWTSecret != "" {
		jwtMaker = gateway.NewJWTMaker(cfg.JWTSecret)
	}
	srv := gateway.NewServer(registry, jwtMaker, cfg.SubscriberBuf, logger)

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed; forcing close", zap.Error(err))
		_ = httpServer.Close()
	}
	logger.Info("server stopped")
}
