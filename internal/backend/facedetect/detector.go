package facedetect

import (
	"context"
	"image"
)

// Face is a detected face in image coordinates
type Face struct {
	Bounds image.Rectangle `json:"bounds"`
	// Score is provider specific: the cascade quality for pigo,
	// a confidence percentage for rekognition.
	Score float64 `json:"score"`
}

// Detector finds faces in an image
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Face, error)
}

// Config selects and tunes a detector
type Config struct {
	Provider string

	// pigo
	CascadePath  string
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinScore     float64
	// MaxDimension bounds the longer side of the image the cascade scans
	MaxDimension int

	// rekognition
	Region        string
	MinConfidence float64
}
