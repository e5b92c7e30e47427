package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sms-relay-hub/internal/config"
	"sms-relay-hub/internal/database"
	devmodel "sms-relay-hub/internal/device/model"
	"sms-relay-hub/internal/forward"
	"sms-relay-hub/internal/forward/dispatcher"
	fwdmodel "sms-relay-hub/internal/forward/model"
	"sms-relay-hub/internal/ingestion"
	"sms-relay-hub/internal/logger"
	msgmodel "sms-relay-hub/internal/message/model"
	"sms-relay-hub/internal/routes"
	pkgmqtt "sms-relay-hub/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting sms relay hub", zap.String("environment", env))

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("database configuration is missing, set DB_HOST and DB_NAME")
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.DB.AutoMigrate(
		&devmodel.Device{},
		&devmodel.SimCard{},
		&msgmodel.Message{},
		&fwdmodel.ForwardSetting{},
	); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	forwardRepo := forward.NewRepository(db)
	if err := forwardRepo.EnsureDefaults(context.Background()); err != nil {
		logger.Fatal("failed to seed forward settings", zap.Error(err))
	}

	dispatchers := []dispatcher.Dispatcher{
		dispatcher.NewTelegram(cfg.Forward.DispatchTimeout, logger.Logger),
		dispatcher.NewBark(cfg.Forward.DispatchTimeout, logger.Logger),
		dispatcher.NewWebhook(cfg.Forward.DispatchTimeout, cfg.Forward.MaxWebhookTimeout, logger.Logger),
		dispatcher.NewWxPusher(cfg.Forward.DispatchTimeout, logger.Logger),
	}
	forwardService := forward.NewService(forwardRepo, dispatchers, cfg.Forward.MaxWebhookTimeout, logger.Logger)

	eventRepo := ingestion.NewRepository(db)
	monitor := ingestion.NewMonitor(eventRepo, cfg.Ingest.HeartbeatTimeout, logger.Logger)
	processor := ingestion.NewProcessor(
		eventRepo,
		monitor,
		forwardService,
		cfg.Ingest.WorkerCount,
		cfg.Ingest.QueueSize,
		logger.Logger,
	)
	processor.Start()

	var mqttClient *ingestion.MQTTIngestionClient
	if cfg.MQTT.Enabled {
		mqttClient, err = ingestion.NewMQTTIngestionClient(&ingestion.MQTTIngestionConfig{
			ClientConfig: &pkgmqtt.Config{
				Broker:         cfg.MQTT.Broker,
				ClientID:       cfg.MQTT.ClientID,
				Username:       cfg.MQTT.Username,
				Password:       cfg.MQTT.Password,
				KeepAlive:      30 * time.Second,
				ConnectTimeout: 10 * time.Second,
			},
			Topic: cfg.MQTT.Topic,
			QoS:   byte(cfg.MQTT.QoS),
		}, processor, logger.Logger)
		if err != nil {
			logger.Fatal("failed to build mqtt ingestion client", zap.Error(err))
		}
		if err := mqttClient.Start(); err != nil {
			logger.Fatal("failed to start mqtt ingestion", zap.Error(err))
		}
	}

	router := routes.SetupRoutes(cfg, db, processor)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down server", zap.Error(err))
	}

	if mqttClient != nil {
		mqttClient.Stop()
	}
	processor.Stop()
	monitor.Shutdown()

	logger.Info("server exited properly")
}
