package commands

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

// SharpenParams represents typed parameters for sharpen command
type SharpenParams struct {
	Sigma    float64
	Strength float64
}

// NewSharpenParamsFromMap creates SharpenParams from a generic map
func NewSharpenParamsFromMap(params map[string]any) (*SharpenParams, error) {
	sigma := commandstructure.GetFloatParam(params, "sigma", 1.5)
	strength := commandstructure.GetFloatParam(params, "strength", 0.4)

	if sigma <= 0 {
		return nil, fmt.Errorf("sigma must be positive, got %f", sigma)
	}
	if strength < 0 {
		return nil, fmt.Errorf("strength must not be negative, got %f", strength)
	}

	return &SharpenParams{
		Sigma:    sigma,
		Strength: strength,
	}, nil
}

// SharpenCommand applies an unsharp mask: (1+strength)*img - strength*blur(img)
type SharpenCommand struct {
	name   string
	params *SharpenParams
}

// NewSharpenCommand creates a new sharpen command from configuration parameters
func NewSharpenCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewSharpenParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &SharpenCommand{
		name:   "SharpenCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *SharpenCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *SharpenCommand) GetParams() *SharpenParams {
	return c.params
}

// Execute sharpens the working image
func (c *SharpenCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	if c.params.Strength == 0 {
		slog.Debug("SharpenCommand: strength is zero, nothing to do")
		return frame, nil
	}

	slog.Debug("SharpenCommand: applying unsharp mask",
		"sigma", c.params.Sigma,
		"strength", c.params.Strength)

	// imaging.Blur clamps at the borders where OpenCV's GaussianBlur reflects,
	// so the outermost pixels differ slightly from an OpenCV render.
	blurred := imaging.Blur(frame.Image, c.params.Sigma)
	return frame.WithImage(addWeighted(frame.Image, 1+c.params.Strength, blurred, -c.params.Strength, 0)), nil
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("SharpenCommand", NewSharpenCommand); err != nil {
		panic(fmt.Sprintf("failed to register SharpenCommand: %v", err))
	}
}
