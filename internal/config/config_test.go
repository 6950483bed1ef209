package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "teraspot/+/+/+/status", cfg.Ingest.Topic)
	assert.Equal(t, "teraspot:alerts:low-confidence", cfg.Streams.LowConfidence)
	assert.Equal(t, "teraspot:alerts:general", cfg.Streams.General)
	assert.Equal(t, "teraspot:alerts:dlq", cfg.Streams.DeadLetter)
	assert.Equal(t, "teraspot:space:", cfg.Ingest.SpaceKeyPrefix)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("INGEST_TOPIC", "custom/#")
	t.Setenv("HTTP_READ_TIMEOUT", "15")
	t.Setenv("HTTP_WRITE_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "custom/#", cfg.Ingest.Topic)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.HTTP.WriteTimeout)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func writeCerts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{DeviceCertFile, PrivateKeyFile, RootCAFile} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("pem"), 0o600))
	}
	return dir
}

func setEdgeEnv(t *testing.T, certDir string) {
	t.Setenv("AWS_IOT_ENDPOINT", "abc-ats.iot.us-east-1.amazonaws.com")
	t.Setenv("AWS_IOT_FACILITY_ID", "fac-1")
	t.Setenv("AWS_IOT_ZONE_ID", "zone-a")
	t.Setenv("AWS_IOT_CERT_PATH", certDir)
}

func TestLoadEdge(t *testing.T) {
	dir := writeCerts(t)
	setEdgeEnv(t, dir)

	cfg, err := LoadEdge()
	require.NoError(t, err)
	assert.Equal(t, "teraspot/fac-1/zone-a/teraspot-edge-device/status", cfg.Topic)
	assert.Equal(t, filepath.Join(dir, RootCAFile), cfg.CAPath)

	mqttCfg := cfg.MQTT()
	assert.Equal(t, "ssl://abc-ats.iot.us-east-1.amazonaws.com:8883", mqttCfg.Broker)
	assert.Equal(t, "teraspot-edge-device", mqttCfg.ClientID)
	assert.True(t, mqttCfg.TLSEnabled())
	assert.False(t, mqttCfg.CleanSession)
}

func TestLoadEdge_TopicOverride(t *testing.T) {
	setEdgeEnv(t, writeCerts(t))
	t.Setenv("AWS_IOT_TOPIC", "lots/custom")
	t.Setenv("AWS_IOT_THING_NAME", "cam-7")

	cfg, err := LoadEdge()
	require.NoError(t, err)
	assert.Equal(t, "lots/custom", cfg.Topic)
	assert.Equal(t, "cam-7", cfg.ThingName)
}

func TestLoadEdge_MissingEnv(t *testing.T) {
	setEdgeEnv(t, writeCerts(t))
	t.Setenv("AWS_IOT_ZONE_ID", "")
	t.Setenv("AWS_IOT_ENDPOINT", "")

	_, err := LoadEdge()
	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "AWS_IOT_ENDPOINT, AWS_IOT_ZONE_ID")
}

func TestLoadEdge_MissingCertificate(t *testing.T) {
	dir := writeCerts(t)
	require.NoError(t, os.Remove(filepath.Join(dir, PrivateKeyFile)))
	setEdgeEnv(t, dir)

	_, err := LoadEdge()
	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, filepath.Join(dir, PrivateKeyFile), cfgErr.Source)
}

func TestBrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://localhost:1883", brokerURL("tcp://localhost:1883"))
	assert.Equal(t, "ssl://broker:8884", brokerURL("broker:8884"))
	assert.Equal(t, "ssl://broker:8883", brokerURL("broker"))
}
