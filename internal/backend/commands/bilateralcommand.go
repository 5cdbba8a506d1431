package commands

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

// BilateralParams represents typed parameters for bilateral filter command
type BilateralParams struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewBilateralParamsFromMap creates BilateralParams from a generic map
func NewBilateralParamsFromMap(params map[string]any) (*BilateralParams, error) {
	diameter := commandstructure.GetIntParam(params, "diameter", 9)
	sigmaColor := commandstructure.GetFloatParam(params, "sigmaColor", 180)
	sigmaSpace := commandstructure.GetFloatParam(params, "sigmaSpace", 180)

	if sigmaColor <= 0 {
		return nil, fmt.Errorf("sigmaColor must be positive, got %f", sigmaColor)
	}
	if sigmaSpace <= 0 {
		return nil, fmt.Errorf("sigmaSpace must be positive, got %f", sigmaSpace)
	}
	// A non-positive diameter derives the window from sigmaSpace
	if diameter <= 0 {
		diameter = int(math.Round(sigmaSpace*1.5))*2 + 1
	}

	return &BilateralParams{
		Diameter:   diameter,
		SigmaColor: sigmaColor,
		SigmaSpace: sigmaSpace,
	}, nil
}

// BilateralFilterCommand smooths flat color regions while keeping edges sharp
type BilateralFilterCommand struct {
	name   string
	params *BilateralParams
}

// NewBilateralFilterCommand creates a new bilateral filter command from configuration parameters
func NewBilateralFilterCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewBilateralParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &BilateralFilterCommand{
		name:   "BilateralFilterCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *BilateralFilterCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *BilateralFilterCommand) GetParams() *BilateralParams {
	return c.params
}

// Execute applies the bilateral filter to the working image
func (c *BilateralFilterCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	slog.Debug("BilateralFilterCommand: filtering image",
		"diameter", c.params.Diameter,
		"sigma_color", c.params.SigmaColor,
		"sigma_space", c.params.SigmaSpace)

	return frame.WithImage(bilateralFilter(frame.Image, c.params)), nil
}

type spaceOffset struct {
	dx, dy int
	weight float64
}

func bilateralFilter(src *image.NRGBA, params *BilateralParams) *image.NRGBA {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(bounds)
	radius := params.Diameter / 2
	if radius < 1 {
		copy(dst.Pix, src.Pix)
		return dst
	}

	colorCoeff := -0.5 / (params.SigmaColor * params.SigmaColor)
	spaceCoeff := -0.5 / (params.SigmaSpace * params.SigmaSpace)

	// Color distance is the L1 distance over the three channels
	colorWeights := make([]float64, 256*3)
	for i := range colorWeights {
		colorWeights[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	// Circular spatial window
	offsets := make([]spaceOffset, 0, params.Diameter*params.Diameter)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			offsets = append(offsets, spaceOffset{dx: dx, dy: dy, weight: math.Exp(r * r * spaceCoeff)})
		}
	}

	parallelFor(height, func(y int) {
		di := y * dst.Stride
		for x := 0; x < width; x++ {
			ci := y*src.Stride + x*4
			r0 := int(src.Pix[ci])
			g0 := int(src.Pix[ci+1])
			b0 := int(src.Pix[ci+2])

			var sumR, sumG, sumB, sumW float64
			for _, o := range offsets {
				ni := reflect101(y+o.dy, height)*src.Stride + reflect101(x+o.dx, width)*4
				r := int(src.Pix[ni])
				g := int(src.Pix[ni+1])
				b := int(src.Pix[ni+2])
				w := o.weight * colorWeights[absInt(r-r0)+absInt(g-g0)+absInt(b-b0)]
				sumR += float64(r) * w
				sumG += float64(g) * w
				sumB += float64(b) * w
				sumW += w
			}

			dst.Pix[di] = saturate(sumR / sumW)
			dst.Pix[di+1] = saturate(sumG / sumW)
			dst.Pix[di+2] = saturate(sumB / sumW)
			dst.Pix[di+3] = src.Pix[ci+3]
			di += 4
		}
	})
	return dst
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("BilateralFilterCommand", NewBilateralFilterCommand); err != nil {
		panic(fmt.Sprintf("failed to register BilateralFilterCommand: %v", err))
	}
}
