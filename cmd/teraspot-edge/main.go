// Package main implements the teraspot edge publisher: it turns camera frames
// (or mocked data) into per-space state changes and publishes them over MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "github.com/jssroberto/teraspot/common/logger"
	mqttcommon "github.com/jssroberto/teraspot/common/mqtt"
	"github.com/jssroberto/teraspot/internal/config"
	"github.com/jssroberto/teraspot/internal/detector"
	"github.com/jssroberto/teraspot/internal/edge"
	"github.com/jssroberto/teraspot/internal/roi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// inference flags
	useYOLO      bool
	inferenceURL string
	imagePath    string
	videoDir     string
	model        string
	frameSkip    int
	roiConfig    string
	roiURL       string

	// publisher flags
	spaces     int
	deviceID   string
	iterations int
	interval   int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "teraspot-edge",
	Short: "Publish parking space state changes from an edge device",
	Long: `teraspot-edge reads frames from a still image or a directory of recorded
frames, runs them through the inference service, maps detections to parking
spaces and publishes only the spaces whose status changed.

Without --use-yolo it publishes mocked occupancy data.

Connection settings come from the environment: AWS_IOT_ENDPOINT,
AWS_IOT_FACILITY_ID, AWS_IOT_ZONE_ID (required), AWS_IOT_CERT_PATH,
AWS_IOT_THING_NAME, AWS_IOT_TOPIC.

Examples:
  # Mocked data, 3 messages
  teraspot-edge --iterations 3

  # Inference over recorded frames with ROI polygons
  teraspot-edge --use-yolo --video ./frames --frame-skip 5 --roi-config roi.json`,
	SilenceUsage: true,
	RunE:         runEdge,
}

func init() {
	rootCmd.Flags().BoolVar(&useYOLO, "use-yolo", false, "Use the inference service instead of mocked data")
	rootCmd.Flags().StringVar(&inferenceURL, "inference-url", "http://localhost:8000", "Inference service base URL")
	rootCmd.Flags().StringVar(&imagePath, "image", "assets/bus.jpg", "Image path for inference")
	rootCmd.Flags().StringVar(&videoDir, "video", "", "Directory of recorded frames (takes precedence over --image)")
	rootCmd.Flags().StringVar(&model, "model", "yolo11n", "Model name sent to the inference service")
	rootCmd.Flags().IntVar(&frameSkip, "frame-skip", 0, "Frames to skip between inferences")
	rootCmd.Flags().StringVar(&roiConfig, "roi-config", "", "Local ROI polygon config (JSON)")
	rootCmd.Flags().StringVar(&roiURL, "roi-url", "", "Remote ROI polygon config URL")

	rootCmd.Flags().IntVar(&spaces, "spaces", 30, "Number of parking spaces")
	rootCmd.Flags().StringVar(&deviceID, "device-id", config.DefaultThingName, "Device identifier")
	rootCmd.Flags().IntVar(&iterations, "iterations", -1, "Number of cycles to run (-1 = infinite)")
	rootCmd.Flags().IntVar(&interval, "interval", 5, "Seconds between cycles")
}

func runEdge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEdge()
	if err != nil {
		return err
	}

	logger, err := applogger.NewLogger(cfg.Log.Level, cfg.Log.Format, "teraspot-edge")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting teraspot edge publisher",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("thing_name", cfg.ThingName),
		zap.String("facility_id", cfg.FacilityID),
		zap.String("zone_id", cfg.ZoneID),
		zap.String("topic", cfg.Topic),
		zap.Bool("inference", useYOLO),
	)

	// 1. snapshot source
	source, err := newSnapshotSource(logger)
	if err != nil {
		return err
	}

	// 2. transport
	mqttClient, err := mqttcommon.NewClient(cfg.MQTT(), logger)
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	// 3. publish loop until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	publisher := edge.NewPublisher(source, mqttClient, edge.Options{
		Topic:      cfg.Topic,
		Spaces:     spaces,
		Iterations: iterations,
		Interval:   time.Duration(interval) * time.Second,
		DeviceID:   deviceID,
		FacilityID: cfg.FacilityID,
		ZoneID:     cfg.ZoneID,
	}, logger)
	return publisher.Run(ctx)
}

func newSnapshotSource(logger *zap.Logger) (edge.SnapshotSource, error) {
	if !useYOLO {
		return edge.NewMockSource(nil), nil
	}

	mapper := roi.NewMapper(logger)
	switch {
	case roiConfig != "":
		if err := mapper.LoadFromFile(roiConfig); err != nil {
			return nil, err
		}
	case roiURL != "":
		if err := mapper.LoadFromURL(roiURL); err != nil {
			return nil, err
		}
	}

	var frames detector.FrameSource
	if videoDir != "" {
		seq, err := detector.NewSequenceSource(videoDir, frameSkip)
		if err != nil {
			return nil, err
		}
		frames = seq
	} else {
		img, err := detector.NewImageSource(imagePath)
		if err != nil {
			return nil, err
		}
		frames = img
	}

	inference := detector.NewHTTPDetector(inferenceURL, model, logger)
	return detector.NewProcessor(inference, frames, mapper, logger), nil
}
