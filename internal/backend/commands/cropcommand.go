package commands

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

// CropParams represents typed parameters for crop command
type CropParams struct {
	Height int
	Width  int
}

// NewCropParamsFromMap creates CropParams from a generic map
func NewCropParamsFromMap(params map[string]any) (*CropParams, error) {
	// Validate required parameters exist
	if err := commandstructure.ValidateRequiredParams(params, []string{"height", "width"}); err != nil {
		return nil, err
	}

	height := commandstructure.GetIntParam(params, "height", 0)
	width := commandstructure.GetIntParam(params, "width", 0)

	// Validate dimensions are positive
	if height <= 0 {
		return nil, fmt.Errorf("height must be positive, got %d", height)
	}
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}

	return &CropParams{
		Height: height,
		Width:  width,
	}, nil
}

// CropCommand center-crops the source and working image together so later
// stages and the segmentation mask stay aligned
type CropCommand struct {
	name   string
	params *CropParams
}

// NewCropCommand creates a new crop command from configuration parameters
func NewCropCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewCropParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &CropCommand{
		name:   "CropCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *CropCommand) Name() string {
	return c.name
}

// Execute crops the frame to the configured dimensions
func (c *CropCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	bounds := frame.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	cropWidth := min(c.params.Width, originalWidth)
	cropHeight := min(c.params.Height, originalHeight)

	if cropWidth == originalWidth && cropHeight == originalHeight {
		slog.Debug("CropCommand: no crop needed, dimensions already smaller or equal",
			"width", originalWidth,
			"height", originalHeight)
		return frame, nil
	}

	slog.Debug("CropCommand: performing center crop",
		"original_width", originalWidth,
		"original_height", originalHeight,
		"crop_width", cropWidth,
		"crop_height", cropHeight)

	return &commandstructure.Frame{
		Source: cropSource(frame.Source, bounds, cropWidth, cropHeight),
		Image:  imaging.CropCenter(frame.Image, cropWidth, cropHeight),
	}, nil
}

// cropSource crops the source region matching the centre crop of the working
// image. A source of a different size is cropped in proportion and resized to
// the crop size.
func cropSource(source *image.NRGBA, bounds image.Rectangle, cropWidth, cropHeight int) *image.NRGBA {
	if source.Bounds().Size() == bounds.Size() {
		return imaging.CropCenter(source, cropWidth, cropHeight)
	}

	x0 := bounds.Dx()/2 - cropWidth/2
	y0 := bounds.Dy()/2 - cropHeight/2
	scaleX := float64(source.Bounds().Dx()) / float64(bounds.Dx())
	scaleY := float64(source.Bounds().Dy()) / float64(bounds.Dy())

	region := image.Rect(
		int(math.Round(float64(x0)*scaleX)),
		int(math.Round(float64(y0)*scaleY)),
		int(math.Round(float64(x0+cropWidth)*scaleX)),
		int(math.Round(float64(y0+cropHeight)*scaleY)),
	).Add(source.Bounds().Min)

	slog.Debug("CropCommand: source differs from working image; cropping proportionally",
		"source_width", source.Bounds().Dx(),
		"source_height", source.Bounds().Dy(),
		"region", region.String())

	cropped := imaging.Crop(source, region)
	if cropped.Bounds().Dx() == cropWidth && cropped.Bounds().Dy() == cropHeight {
		return cropped
	}
	return imaging.Resize(cropped, cropWidth, cropHeight, imaging.Lanczos)
}

// GetHeight returns the configured height
func (c *CropCommand) GetHeight() int {
	return c.params.Height
}

// GetWidth returns the configured width
func (c *CropCommand) GetWidth() int {
	return c.params.Width
}

// GetParams returns the typed parameters
func (c *CropCommand) GetParams() *CropParams {
	return c.params
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("CropCommand", NewCropCommand); err != nil {
		panic(fmt.Sprintf("failed to register CropCommand: %v", err))
	}
}
