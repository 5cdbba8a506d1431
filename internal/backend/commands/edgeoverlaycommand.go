package commands

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

// EdgeOverlayParams represents typed parameters for edge overlay command
type EdgeOverlayParams struct {
	MedianKernel int
	BlockSize    int
	Offset       float64
	EdgeBlur     bool
	ColorWeight  float64
	EdgeWeight   float64
}

// NewEdgeOverlayParamsFromMap creates EdgeOverlayParams from a generic map
func NewEdgeOverlayParamsFromMap(params map[string]any) (*EdgeOverlayParams, error) {
	medianKernel := commandstructure.GetIntParam(params, "medianKernel", 5)
	blockSize := commandstructure.GetIntParam(params, "blockSize", 9)

	if medianKernel < 1 || medianKernel%2 == 0 {
		return nil, fmt.Errorf("medianKernel must be a positive odd number, got %d", medianKernel)
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("blockSize must be an odd number of at least 3, got %d", blockSize)
	}

	return &EdgeOverlayParams{
		MedianKernel: medianKernel,
		BlockSize:    blockSize,
		Offset:       commandstructure.GetFloatParam(params, "offset", 7),
		EdgeBlur:     commandstructure.GetBoolParam(params, "edgeBlur", true),
		ColorWeight:  commandstructure.GetFloatParam(params, "colorWeight", 0.88),
		EdgeWeight:   commandstructure.GetFloatParam(params, "edgeWeight", 0.12),
	}, nil
}

// EdgeOverlayCommand extracts line art from the source photo and blends it
// over the working image
type EdgeOverlayCommand struct {
	name   string
	params *EdgeOverlayParams
}

// NewEdgeOverlayCommand creates a new edge overlay command from configuration parameters
func NewEdgeOverlayCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewEdgeOverlayParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &EdgeOverlayCommand{
		name:   "EdgeOverlayCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *EdgeOverlayCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *EdgeOverlayCommand) GetParams() *EdgeOverlayParams {
	return c.params
}

// Execute builds the edge mask from the unfiltered source and blends it in
func (c *EdgeOverlayCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	bounds := frame.Bounds()
	source := frame.Source
	if source.Bounds().Size() != bounds.Size() {
		slog.Debug("EdgeOverlayCommand: resizing source to working image",
			"source_width", source.Bounds().Dx(),
			"source_height", source.Bounds().Dy(),
			"target_width", bounds.Dx(),
			"target_height", bounds.Dy())
		source = imaging.Resize(source, bounds.Dx(), bounds.Dy(), imaging.Lanczos)
	}

	edges := c.EdgeMask(toGrayPlane(source))

	slog.Debug("EdgeOverlayCommand: blending edges",
		"color_weight", c.params.ColorWeight,
		"edge_weight", c.params.EdgeWeight)

	return frame.WithImage(addWeighted(frame.Image, c.params.ColorWeight, grayToNRGBA(edges), c.params.EdgeWeight, 0)), nil
}

// EdgeMask turns a grayscale plane into a white image with dark outlines
func (c *EdgeOverlayCommand) EdgeMask(gray *grayPlane) *grayPlane {
	if c.params.MedianKernel > 1 {
		gray = medianBlur(gray, c.params.MedianKernel)
	}
	edges := adaptiveThresholdMean(gray, 255, c.params.BlockSize, c.params.Offset)
	if c.params.EdgeBlur {
		edges = gaussianBlur3(edges)
	}
	return edges
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("EdgeOverlayCommand", NewEdgeOverlayCommand); err != nil {
		panic(fmt.Sprintf("failed to register EdgeOverlayCommand: %v", err))
	}
}
