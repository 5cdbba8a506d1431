package facedetect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/disintegration/imaging"
)

// RekognitionAPI is the subset of the rekognition client used for detection
type RekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// RekognitionDetector delegates detection to AWS Rekognition
type RekognitionDetector struct {
	client        RekognitionAPI
	minConfidence float64
}

// NewRekognitionDetectorFromEnv builds a client from the default AWS credential chain
func NewRekognitionDetectorFromEnv(ctx context.Context, cfg Config) (*RekognitionDetector, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewRekognitionDetector(rekognition.NewFromConfig(awsConfig), cfg.MinConfidence), nil
}

// NewRekognitionDetector wraps an existing client. minConfidence is a percentage, 60 when unset.
func NewRekognitionDetector(client RekognitionAPI, minConfidence float64) *RekognitionDetector {
	if minConfidence <= 0 {
		minConfidence = 60
	}
	return &RekognitionDetector{
		client:        client,
		minConfidence: minConfidence,
	}
}

// Detect uploads a JPEG rendition of the image and converts the returned boxes to pixels
func (d *RekognitionDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image for rekognition: %w", err)
	}

	output, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: buf.Bytes(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectFaces failed: %w", err)
	}

	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	faces := make([]Face, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		confidence := float64(aws.ToFloat32(detail.Confidence))
		if confidence < d.minConfidence || detail.BoundingBox == nil {
			continue
		}
		box := detail.BoundingBox
		left := float64(aws.ToFloat32(box.Left)) * width
		top := float64(aws.ToFloat32(box.Top)) * height
		faces = append(faces, Face{
			Bounds: image.Rect(
				int(left),
				int(top),
				int(left+float64(aws.ToFloat32(box.Width))*width),
				int(top+float64(aws.ToFloat32(box.Height))*height),
			).Intersect(image.Rect(0, 0, bounds.Dx(), bounds.Dy())),
			Score: confidence,
		})
	}

	slog.Debug("RekognitionDetector: detection complete",
		"candidates", len(output.FaceDetails),
		"faces", len(faces),
		"min_confidence", d.minConfidence)

	return faces, nil
}
