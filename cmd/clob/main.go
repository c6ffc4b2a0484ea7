package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/orbitex/clob/internal/clob/engine"
	"github.com/orbitex/clob/internal/config"
	"github.com/orbitex/clob/internal/marketdata"
	"github.com/orbitex/clob/internal/server"
	"github.com/orbitex/clob/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	var opts []engine.Option
	var publisher *marketdata.KafkaTradePublisher
	if cfg.Kafka.Enabled {
		publisher = marketdata.NewKafkaTradePublisher(
			cfg.Instrument.Symbol, cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		opts = append(opts, engine.WithTradePublisher(publisher))
		zapLogger.Info("trade feed enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	eng := engine.New(cfg.Instrument.Symbol, zapLogger, opts...)
	srv := server.New(zapLogger, cfg.Server, eng).HTTPServer()

	go func() {
		zapLogger.Info("matching engine listening",
			zap.String("addr", srv.Addr),
			zap.String("symbol", cfg.Instrument.Symbol))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			zapLogger.Error("trade feed shutdown failed", zap.Error(err))
		}
	}
}
