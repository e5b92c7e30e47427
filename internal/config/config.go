package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MQTT      MQTTConfig
	Ingest    IngestConfig
	Forward   ForwardConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MQTTConfig enables the optional MQTT inbound transport. Gateways that
// cannot reach the webhook endpoint directly publish the same JSON payloads
// to a broker topic instead.
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      int
}

type IngestConfig struct {
	WorkerCount      int
	QueueSize        int
	HeartbeatTimeout time.Duration
}

type ForwardConfig struct {
	DispatchTimeout   time.Duration // per-platform outbound call budget
	MaxWebhookTimeout time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("MQTT_QOS", 1)
	viper.SetDefault("INGEST_WORKER_COUNT", 4)
	viper.SetDefault("INGEST_QUEUE_SIZE", 1024)
	viper.SetDefault("HEARTBEAT_TIMEOUT_SECONDS", 180)
	viper.SetDefault("FORWARD_DISPATCH_TIMEOUT_SECONDS", 10)
	viper.SetDefault("FORWARD_MAX_WEBHOOK_TIMEOUT_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT_RPS", 50.0)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			if _, ok := err.(*os.PathError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		MQTT: MQTTConfig{
			Enabled:  viper.GetBool("MQTT_ENABLED"),
			Broker:   viper.GetString("MQTT_BROKER"),
			ClientID: viper.GetString("MQTT_CLIENT_ID"),
			Username: viper.GetString("MQTT_USERNAME"),
			Password: viper.GetString("MQTT_PASSWORD"),
			Topic:    viper.GetString("MQTT_TOPIC"),
			QoS:      viper.GetInt("MQTT_QOS"),
		},
		Ingest: IngestConfig{
			WorkerCount:      viper.GetInt("INGEST_WORKER_COUNT"),
			QueueSize:        viper.GetInt("INGEST_QUEUE_SIZE"),
			HeartbeatTimeout: time.Duration(viper.GetInt("HEARTBEAT_TIMEOUT_SECONDS")) * time.Second,
		},
		Forward: ForwardConfig{
			DispatchTimeout:   time.Duration(viper.GetInt("FORWARD_DISPATCH_TIMEOUT_SECONDS")) * time.Second,
			MaxWebhookTimeout: time.Duration(viper.GetInt("FORWARD_MAX_WEBHOOK_TIMEOUT_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
