package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jssroberto/teraspot/common/config"
)

// Config ingest/API service configuration
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Ingest struct {
		Topic          string // e.g. "teraspot/+/+/+/status"
		QoS            byte
		SpaceKeyPrefix string // current-state key prefix
	}

	Streams struct {
		LowConfidence string
		General       string
		DeadLetter    string
	}

	HTTP struct {
		Addr            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the environment with defaults
func Load() (*Config, error) {
	cfg := &Config{}

	// defaults, then {PREFIX}_* overrides
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "teraspot",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:       "tcp://localhost:1883",
		ClientID:     "teraspot-ingest",
		CleanSession: true,
	}
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTT.CertFile = getEnv("MQTT_CERT_FILE", "")
	cfg.MQTT.KeyFile = getEnv("MQTT_KEY_FILE", "")
	cfg.MQTT.CAFile = getEnv("MQTT_CA_FILE", "")
	cfg.MQTT.KeepAlive = 30
	cfg.MQTT.QoS = 1

	cfg.Ingest.Topic = getEnv("INGEST_TOPIC", "teraspot/+/+/+/status")
	cfg.Ingest.QoS = 1
	cfg.Ingest.SpaceKeyPrefix = getEnv("SPACE_KEY_PREFIX", "teraspot:space:")

	cfg.Streams.LowConfidence = getEnv("STREAM_LOW_CONFIDENCE", "teraspot:alerts:low-confidence")
	cfg.Streams.General = getEnv("STREAM_ALERTS", "teraspot:alerts:general")
	cfg.Streams.DeadLetter = getEnv("STREAM_DLQ", "teraspot:alerts:dlq")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	var err error
	if cfg.HTTP.ReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTP.WriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTP.ShutdownTimeout, err = getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	// plain seconds
	secs, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return time.Duration(secs) * time.Second, nil
}
