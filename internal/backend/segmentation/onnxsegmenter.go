package segmentation

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"
)

var environmentMu sync.Mutex

// OnnxSegmenter runs a selfie segmentation model with NHWC float input in [0, 1]
// and a single channel probability output of the same spatial size.
type OnnxSegmenter struct {
	mu      sync.Mutex
	width   int
	height  int
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewOnnxSegmenter loads the model and allocates the input and output tensors
func NewOnnxSegmenter(cfg Config) (*OnnxSegmenter, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("segmentation model not found at %s: %w", cfg.ModelPath, err)
	}
	if cfg.InputWidth <= 0 {
		cfg.InputWidth = 256
	}
	if cfg.InputHeight <= 0 {
		cfg.InputHeight = 144
	}
	if cfg.InputName == "" {
		cfg.InputName = "input_1"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "activation_10"
	}

	if err := initializeEnvironment(cfg.SharedLibraryPath); err != nil {
		return nil, err
	}

	w, h := int64(cfg.InputWidth), int64(cfg.InputHeight)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, h, w, 3))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, h, w, 1))
	if err != nil {
		_ = input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		_ = input.Destroy()
		_ = output.Destroy()
		return nil, fmt.Errorf("failed to create onnx session for %s: %w", cfg.ModelPath, err)
	}

	slog.Info("segmentation model loaded",
		"model_path", cfg.ModelPath,
		"input_width", cfg.InputWidth,
		"input_height", cfg.InputHeight)

	return &OnnxSegmenter{
		width:   cfg.InputWidth,
		height:  cfg.InputHeight,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

func initializeEnvironment(sharedLibraryPath string) error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if sharedLibraryPath != "" {
		ort.SetSharedLibraryPath(sharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnx runtime: %w", err)
	}
	return nil
}

// Segment returns the model's probability map at model resolution
func (s *OnnxSegmenter) Segment(ctx context.Context, img image.Image) (*Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resized := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.input.GetData()
	for i, p := 0, 0; p < len(resized.Pix); i, p = i+3, p+4 {
		data[i] = float32(resized.Pix[p]) / 255
		data[i+1] = float32(resized.Pix[p+1]) / 255
		data[i+2] = float32(resized.Pix[p+2]) / 255
	}

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("segmentation inference failed: %w", err)
	}

	mask := NewMask(s.width, s.height)
	copy(mask.Values, s.output.GetData())

	slog.Debug("OnnxSegmenter: inference complete",
		"source_width", img.Bounds().Dx(),
		"source_height", img.Bounds().Dy())

	return mask, nil
}

// Close releases the session and its tensors
func (s *OnnxSegmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, destroy := range []func() error{s.session.Destroy, s.input.Destroy, s.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
