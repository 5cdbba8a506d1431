package facedetect

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// PigoDetector runs a pico cascade classifier locally
type PigoDetector struct {
	classifier   *pigo.Pigo
	minSize      int
	maxSize      int
	shiftFactor  float64
	scaleFactor  float64
	iouThreshold float64
	minScore     float64
	maxDimension int
}

// NewPigoDetectorFromFile loads the cascade file referenced by the config
func NewPigoDetectorFromFile(cfg Config) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file %s: %w", cfg.CascadePath, err)
	}
	return NewPigoDetector(cascade, cfg)
}

// NewPigoDetector unpacks a cascade and applies defaults for unset parameters
func NewPigoDetector(cascade []byte, cfg Config) (*PigoDetector, error) {
	if len(cascade) == 0 {
		return nil, fmt.Errorf("cascade data is empty")
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	d := &PigoDetector{
		classifier:   classifier,
		minSize:      cfg.MinSize,
		maxSize:      cfg.MaxSize,
		shiftFactor:  cfg.ShiftFactor,
		scaleFactor:  cfg.ScaleFactor,
		iouThreshold: cfg.IoUThreshold,
		minScore:     cfg.MinScore,
		maxDimension: cfg.MaxDimension,
	}
	if d.minSize <= 0 {
		d.minSize = 20
	}
	if d.maxSize <= 0 {
		d.maxSize = 2000
	}
	if d.shiftFactor <= 0 {
		d.shiftFactor = 0.1
	}
	if d.scaleFactor <= 0 {
		d.scaleFactor = 1.1
	}
	if d.iouThreshold <= 0 {
		d.iouThreshold = 0.2
	}
	if d.minScore <= 0 {
		d.minScore = 5.0
	}
	if d.maxDimension <= 0 {
		d.maxDimension = 1024
	}
	return d, nil
}

// Detect returns all clustered detections whose quality exceeds the minimum score
func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original := image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy())
	src, factor := fitForDetection(img, d.maxDimension)
	bounds := src.Bounds()
	params := pigo.CascadeParams{
		MinSize:     d.minSize,
		MaxSize:     d.maxSize,
		ShiftFactor: d.shiftFactor,
		ScaleFactor: d.scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   bounds.Dy(),
			Cols:   bounds.Dx(),
			Dim:    bounds.Dx(),
		},
	}

	detections := d.classifier.RunCascade(params, 0)
	detections = d.classifier.ClusterDetections(detections, d.iouThreshold)

	faces := make([]Face, 0, len(detections))
	for _, det := range detections {
		if float64(det.Q) < d.minScore {
			continue
		}
		half := det.Scale / 2
		box := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half)
		faces = append(faces, Face{
			Bounds: scaleRect(box, factor).Intersect(original),
			Score:  float64(det.Q),
		})
	}

	slog.Debug("PigoDetector: detection complete",
		"candidates", len(detections),
		"faces", len(faces),
		"min_score", d.minScore,
		"scan_factor", factor)

	return faces, nil
}

// fitForDetection shrinks img so its longer side is at most maxDimension and
// returns the factor that maps scanned coordinates back to img
func fitForDetection(img image.Image, maxDimension int) (*image.NRGBA, float64) {
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return pigo.ImgToNRGBA(img), 1
	}
	fitted := imaging.Fit(img, maxDimension, maxDimension, imaging.Linear)
	return fitted, float64(bounds.Dx()) / float64(fitted.Bounds().Dx())
}

func scaleRect(r image.Rectangle, factor float64) image.Rectangle {
	if factor == 1 {
		return r
	}
	return image.Rect(
		int(math.Round(float64(r.Min.X)*factor)),
		int(math.Round(float64(r.Min.Y)*factor)),
		int(math.Round(float64(r.Max.X)*factor)),
		int(math.Round(float64(r.Max.Y)*factor)),
	)
}
