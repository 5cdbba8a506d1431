package facedetect

import (
	"context"
	"fmt"
	"log/slog"
)

// NewDetector creates the detector named by cfg.Provider
func NewDetector(ctx context.Context, cfg Config) (Detector, error) {
	slog.Info("initializing face detector", "provider", cfg.Provider)

	switch cfg.Provider {
	case "", "pigo":
		detector, err := NewPigoDetectorFromFile(cfg)
		if err != nil {
			return nil, err
		}
		return detector, nil
	case "rekognition":
		detector, err := NewRekognitionDetectorFromEnv(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return detector, nil
	default:
		return nil, fmt.Errorf("unsupported face detection provider: %s", cfg.Provider)
	}
}
