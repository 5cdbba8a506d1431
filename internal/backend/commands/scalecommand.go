package commands

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

// ScaleParams represents typed parameters for scale command
type ScaleParams struct {
	MaxHeight int
	MaxWidth  int
}

// NewScaleParamsFromMap creates ScaleParams from a generic map
func NewScaleParamsFromMap(params map[string]any) (*ScaleParams, error) {
	// Validate required parameters exist
	if err := commandstructure.ValidateRequiredParams(params, []string{"maxHeight", "maxWidth"}); err != nil {
		return nil, err
	}

	return NewScaleParams(
		commandstructure.GetIntParam(params, "maxHeight", 0),
		commandstructure.GetIntParam(params, "maxWidth", 0),
	)
}

// NewScaleParams validates concrete scale bounds
func NewScaleParams(maxHeight, maxWidth int) (*ScaleParams, error) {
	if maxHeight <= 0 {
		return nil, fmt.Errorf("maxHeight must be positive, got %d", maxHeight)
	}
	if maxWidth <= 0 {
		return nil, fmt.Errorf("maxWidth must be positive, got %d", maxWidth)
	}
	return &ScaleParams{MaxHeight: maxHeight, MaxWidth: maxWidth}, nil
}

// ScaleCommand shrinks the working image to fit a bounding box, keeping the aspect ratio.
// The source is resized to the same size. Images that already fit are left untouched.
type ScaleCommand struct {
	name   string
	params *ScaleParams
}

// NewScaleCommand creates a new scale command from configuration parameters
func NewScaleCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &ScaleCommand{
		name:   "ScaleCommand",
		params: typedParams,
	}, nil
}

// NewScaleCommandWithParams creates a new scale command from concrete typed parameters
func NewScaleCommandWithParams(maxHeight, maxWidth int) (*ScaleCommand, error) {
	typedParams, err := NewScaleParams(maxHeight, maxWidth)
	if err != nil {
		return nil, err
	}

	return &ScaleCommand{
		name:   "ScaleCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *ScaleCommand) Name() string {
	return c.name
}

// Execute scales the working image and the source down into the configured bounds
func (c *ScaleCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	bounds := frame.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	if originalWidth <= c.params.MaxWidth && originalHeight <= c.params.MaxHeight {
		slog.Debug("ScaleCommand: image already fits bounds; skipping scaling",
			"width", originalWidth,
			"height", originalHeight)
		return frame, nil
	}

	scaled := imaging.Fit(frame.Image, c.params.MaxWidth, c.params.MaxHeight, imaging.Lanczos)
	source := imaging.Resize(frame.Source, scaled.Bounds().Dx(), scaled.Bounds().Dy(), imaging.Lanczos)

	slog.Debug("ScaleCommand: scaling complete",
		"original_width", originalWidth,
		"original_height", originalHeight,
		"scaled_width", scaled.Bounds().Dx(),
		"scaled_height", scaled.Bounds().Dy())

	return &commandstructure.Frame{
		Source: source,
		Image:  scaled,
	}, nil
}

// GetMaxHeight returns the configured maximum height
func (c *ScaleCommand) GetMaxHeight() int {
	return c.params.MaxHeight
}

// GetMaxWidth returns the configured maximum width
func (c *ScaleCommand) GetMaxWidth() int {
	return c.params.MaxWidth
}

// GetParams returns the typed parameters
func (c *ScaleCommand) GetParams() *ScaleParams {
	return c.params
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("ScaleCommand", NewScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register ScaleCommand: %v", err))
	}
}
