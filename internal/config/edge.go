package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jssroberto/teraspot/common/config"
	"github.com/jssroberto/teraspot/internal/models"
)

// Certificate file names expected under AWS_IOT_CERT_PATH
const (
	DeviceCertFile = "device-certificate.pem.crt"
	PrivateKeyFile = "private-key.pem.key"
	RootCAFile     = "AmazonRootCA1.pem"
)

// DefaultThingName edge client id when AWS_IOT_THING_NAME is unset
const DefaultThingName = "teraspot-edge-device"

// EdgeConfig edge publisher connection settings
type EdgeConfig struct {
	Endpoint   string
	CertPath   string
	KeyPath    string
	CAPath     string
	ThingName  string
	FacilityID string
	ZoneID     string
	Topic      string

	Log struct {
		Level  string
		Format string
	}
}

// LoadEdge requires AWS_IOT_ENDPOINT, AWS_IOT_FACILITY_ID and AWS_IOT_ZONE_ID and the
// three certificate files. Any problem is a *models.ConfigurationError.
func LoadEdge() (*EdgeConfig, error) {
	certDir := getEnv("AWS_IOT_CERT_PATH", "./certs")

	cfg := &EdgeConfig{
		Endpoint:   os.Getenv("AWS_IOT_ENDPOINT"),
		CertPath:   filepath.Join(certDir, DeviceCertFile),
		KeyPath:    filepath.Join(certDir, PrivateKeyFile),
		CAPath:     filepath.Join(certDir, RootCAFile),
		ThingName:  getEnv("AWS_IOT_THING_NAME", DefaultThingName),
		FacilityID: os.Getenv("AWS_IOT_FACILITY_ID"),
		ZoneID:     os.Getenv("AWS_IOT_ZONE_ID"),
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "console")

	// 1. required variables
	var missing []string
	for _, kv := range []struct{ key, value string }{
		{"AWS_IOT_ENDPOINT", cfg.Endpoint},
		{"AWS_IOT_FACILITY_ID", cfg.FacilityID},
		{"AWS_IOT_ZONE_ID", cfg.ZoneID},
	} {
		if kv.value == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return nil, models.NewConfigurationError("env", "missing required environment variables: "+strings.Join(missing, ", "), nil)
	}

	// 2. certificates
	for _, path := range []string{cfg.CertPath, cfg.KeyPath, cfg.CAPath} {
		info, err := os.Stat(path)
		if err != nil {
			return nil, models.NewConfigurationError(path, "certificate not found", err)
		}
		if info.IsDir() {
			return nil, models.NewConfigurationError(path, "certificate path is a directory", nil)
		}
	}

	// 3. topic
	cfg.Topic = os.Getenv("AWS_IOT_TOPIC")
	if cfg.Topic == "" {
		cfg.Topic = StatusTopic(cfg.FacilityID, cfg.ZoneID, cfg.ThingName)
	}

	return cfg, nil
}

// StatusTopic teraspot/{facility}/{zone}/{thing}/status
func StatusTopic(facilityID, zoneID, thingName string) string {
	return fmt.Sprintf("teraspot/%s/%s/%s/status", facilityID, zoneID, thingName)
}

// MQTT connection settings for the edge client: mutual TLS, persistent
// session, QoS 1. A bare host endpoint becomes ssl://host:8883.
func (c *EdgeConfig) MQTT() *config.MQTTConfig {
	return &config.MQTTConfig{
		Broker:       brokerURL(c.Endpoint),
		ClientID:     c.ThingName,
		QoS:          1,
		CleanSession: false,
		KeepAlive:    30,
		CertFile:     c.CertPath,
		KeyFile:      c.KeyPath,
		CAFile:       c.CAPath,
	}
}

func brokerURL(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if strings.Contains(endpoint, ":") {
		return "ssl://" + endpoint
	}
	return "ssl://" + endpoint + ":8883"
}
