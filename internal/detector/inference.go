package detector

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// DefaultConfidenceThreshold model confidence cut-off sent with every request
const DefaultConfidenceThreshold = 0.5

// Detector runs object detection on one frame
type Detector interface {
	Detect(ctx context.Context, frame *Frame) ([]models.Detection, error)
	Model() string
}

// detectResponse inference service reply
type detectResponse struct {
	Detections []struct {
		BBox       []float64 `json:"bbox"`
		Confidence float64   `json:"confidence"`
	} `json:"detections"`
}

// HTTPDetector client for an external inference service.
// POST {baseURL}/detect, multipart "image" + "conf" + "model".
type HTTPDetector struct {
	httpClient *resty.Client
	model      string
	conf       float64
	logger     *zap.Logger
}

// NewHTTPDetector uses the default confidence threshold
func NewHTTPDetector(baseURL, model string, logger *zap.Logger) *HTTPDetector {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPDetector{
		httpClient: client,
		model:      model,
		conf:       DefaultConfidenceThreshold,
		logger:     logger,
	}
}

// Model name reported as data_source
func (d *HTTPDetector) Model() string {
	return d.model
}

// Detect uploads the frame and decodes the detections
func (d *HTTPDetector) Detect(ctx context.Context, frame *Frame) ([]models.Detection, error) {
	var response detectResponse
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetFileReader("image", frame.Name, bytes.NewReader(frame.Data)).
		SetFormData(map[string]string{
			"conf":  strconv.FormatFloat(d.conf, 'f', -1, 64),
			"model": d.model,
		}).
		SetResult(&response).
		Post("/detect")
	if err != nil {
		d.logger.Error("Inference request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call inference service: %w", err)
	}
	if resp.IsError() {
		d.logger.Error("Inference service returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("inference service error: HTTP %d", resp.StatusCode())
	}

	detections := make([]models.Detection, 0, len(response.Detections))
	for _, raw := range response.Detections {
		if len(raw.BBox) != 4 {
			d.logger.Warn("Skipping detection with malformed bbox", zap.Int("bbox_len", len(raw.BBox)))
			continue
		}
		var det models.Detection
		copy(det.BBox[:], raw.BBox)
		det.Confidence = raw.Confidence
		detections = append(detections, det)
	}

	d.logger.Debug("Inference completed",
		zap.String("frame", frame.Name),
		zap.Int("detections", len(detections)),
	)
	return detections, nil
}
