package roi

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// LoadFromFile reads a local ROI file into the mapper
func (m *Mapper) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewConfigurationError(path, "failed to read ROI file", err)
	}
	if err := m.load(data); err != nil {
		return err
	}
	m.logger.Info("Loaded ROI config from file", zap.String("path", path))
	return nil
}

// LoadFromURL downloads the ROI document from an object-store URL
// (pre-signed S3/GCS link or plain HTTP)
func (m *Mapper) LoadFromURL(url string) error {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	resp, err := client.R().Get(url)
	if err != nil {
		return models.NewConfigurationError(url, "failed to download ROI config", err)
	}
	if resp.IsError() {
		return models.NewConfigurationError(url, fmt.Sprintf("failed to download ROI config: HTTP %d", resp.StatusCode()), nil)
	}
	if err := m.load(resp.Body()); err != nil {
		return err
	}
	m.logger.Info("Loaded ROI config from URL", zap.String("url", url))
	return nil
}

func (m *Mapper) load(data []byte) error {
	entries, err := ParseROIConfig(data)
	if err != nil {
		return err
	}
	return m.SetROISpaces(entries)
}
