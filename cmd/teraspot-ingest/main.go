package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jssroberto/teraspot/common/database"
	applogger "github.com/jssroberto/teraspot/common/logger"
	mqttcommon "github.com/jssroberto/teraspot/common/mqtt"
	rediscommon "github.com/jssroberto/teraspot/common/redis"
	"github.com/jssroberto/teraspot/internal/alerts"
	"github.com/jssroberto/teraspot/internal/config"
	"github.com/jssroberto/teraspot/internal/consumer"
	httpapi "github.com/jssroberto/teraspot/internal/http"
	"github.com/jssroberto/teraspot/internal/queue"
	"github.com/jssroberto/teraspot/internal/repository"
	"github.com/jssroberto/teraspot/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := applogger.NewLogger(cfg.Log.Level, cfg.Log.Format, "teraspot-ingest")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting teraspot-ingest service",
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("topic", cfg.Ingest.Topic),
		zap.String("http_addr", cfg.HTTP.Addr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. storage
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)
	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	defer rediscommon.Close(redisClient)
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	current := repository.NewCurrentStateRepository(redisClient, cfg.Ingest.SpaceKeyPrefix, logger)
	history := repository.NewHistoryRepository(db, logger)
	configs := repository.NewConfigRepository(db, logger)

	// 2. alert queues
	streams := queue.NewStreamQueue(redisClient, logger)
	dispatcher := alerts.NewDispatcher(streams, alerts.Queues{
		LowConfidence: cfg.Streams.LowConfidence,
		General:       cfg.Streams.General,
		DeadLetter:    cfg.Streams.DeadLetter,
	}, logger)

	// 3. services
	ingest := service.NewIngestService(current, history, dispatcher, logger)
	status := service.NewStatusService(current, history, logger)
	configService := service.NewConfigService(configs, logger)

	// 4. HTTP API
	router := httpapi.NewRouter(logger)
	router.RegisterStatusRoutes(httpapi.NewStatusHandler(status, logger))
	router.RegisterIngestRoutes(httpapi.NewIngestHandler(ingest, logger))
	router.RegisterConfigRoutes(httpapi.NewConfigHandler(configService, logger))
	router.RegisterAlertRoutes(httpapi.NewAlertsHandler(streams, map[string]string{
		"low-confidence": cfg.Streams.LowConfidence,
		"general":        cfg.Streams.General,
		"dlq":            cfg.Streams.DeadLetter,
	}, logger))
	router.RegisterOpsRoutes()

	srv := service.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, logger)
	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()

	// 5. MQTT consumer
	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttClient.Disconnect()

	mqttConsumer := consumer.NewMQTTConsumer(mqttClient, ingest, cfg.Ingest.Topic, cfg.Ingest.QoS, logger)
	go func() {
		errCh <- mqttConsumer.Start(ctx)
	}()

	// wait for a signal or a component failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("Component failed, shutting down", zap.Error(err))
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := mqttConsumer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping MQTT consumer", zap.Error(err))
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", zap.Error(err))
	}

	logger.Info("Service stopped")
}
