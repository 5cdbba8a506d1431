package commands

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

// PosterizeParams represents typed parameters for posterize command
type PosterizeParams struct {
	Levels  int           // Per channel levels, used when no palette is given
	Palette []color.NRGBA // Optional fixed palette, e.g. [[0,0,0], [255,255,255]]
	Dither  float64       // Floyd-Steinberg error diffusion strength in [0, 1]
}

// NewPosterizeParamsFromMap creates PosterizeParams from a generic map
func NewPosterizeParamsFromMap(params map[string]any) (*PosterizeParams, error) {
	levels := commandstructure.GetIntParam(params, "levels", 6)
	if levels < 2 || levels > 256 {
		return nil, fmt.Errorf("levels must be between 2 and 256, got %d", levels)
	}

	dither := commandstructure.GetFloatParam(params, "dither", 0)
	if dither < 0 || dither > 1 {
		return nil, fmt.Errorf("dither must be between 0 and 1, got %f", dither)
	}

	posterizeParams := &PosterizeParams{
		Levels: levels,
		Dither: dither,
	}

	if paletteParam, ok := params["palette"]; ok {
		palette, err := parsePalette(paletteParam)
		if err != nil {
			return nil, fmt.Errorf("invalid palette: %w", err)
		}
		posterizeParams.Palette = palette
	}

	return posterizeParams, nil
}

// parsePalette converts a YAML list of RGB triples into colors
func parsePalette(paletteParam any) ([]color.NRGBA, error) {
	entries, ok := paletteParam.([]any)
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("palette must be a non-empty array of RGB arrays")
	}

	palette := make([]color.NRGBA, len(entries))
	for i, entry := range entries {
		components, ok := entry.([]any)
		if !ok || len(components) != 3 {
			return nil, fmt.Errorf("color at index %d must have exactly 3 values (RGB)", i)
		}

		var rgb [3]uint8
		for j, val := range components {
			var v int
			switch n := val.(type) {
			case int:
				v = n
			case float64:
				v = int(n)
			default:
				return nil, fmt.Errorf("RGB value at color %d, component %d must be a number", i, j)
			}
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("RGB value at color %d, component %d must be 0-255, got %d", i, j, v)
			}
			rgb[j] = uint8(v)
		}
		palette[i] = color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
	}
	return palette, nil
}

// PosterizeCommand reduces the image to flat color areas
type PosterizeCommand struct {
	name   string
	params *PosterizeParams
}

// NewPosterizeCommand creates a new posterize command from configuration parameters
func NewPosterizeCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPosterizeParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &PosterizeCommand{
		name:   "PosterizeCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *PosterizeCommand) Name() string {
	return c.name
}

// Execute maps every pixel to its nearest quantized color; alpha is kept
func (c *PosterizeCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	src := frame.Image
	bounds := src.Bounds()

	slog.Debug("PosterizeCommand: quantizing",
		"levels", c.params.Levels,
		"palette_size", len(c.params.Palette),
		"dither", c.params.Dither)

	out := image.NewNRGBA(bounds)
	if c.params.Dither == 0 {
		parallelFor(bounds.Dy(), func(y int) {
			row := y * src.Stride
			for x := 0; x < bounds.Dx(); x++ {
				i := row + x*4
				r, g, b := c.nearest(int(src.Pix[i]), int(src.Pix[i+1]), int(src.Pix[i+2]))
				out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, src.Pix[i+3]
			}
		})
		return frame.WithImage(out), nil
	}

	c.diffuse(src, out)
	return frame.WithImage(out), nil
}

// diffuse runs integer Floyd-Steinberg error diffusion, left to right, with
// errors scaled by 16 and weighted by the dither strength
func (c *PosterizeCommand) diffuse(src, out *image.NRGBA) {
	const (
		fsScale    = 16
		wRight     = 7
		wDownLeft  = 3
		wDown      = 5
		wDownRight = 1
	)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	strength := c.params.Dither

	var errCurr, errNext [3][]int
	for ch := range 3 {
		errCurr[ch] = make([]int, w)
		errNext[ch] = make([]int, w)
	}

	roundDiv16 := func(e int) int {
		if e >= 0 {
			return (e + fsScale/2) / fsScale
		}
		return (e - fsScale/2) / fsScale
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			var adjusted [3]int
			for ch := range 3 {
				adjusted[ch] = int(saturate(float64(int(src.Pix[i+ch]) + roundDiv16(errCurr[ch][x]))))
			}

			r, g, b := c.nearest(adjusted[0], adjusted[1], adjusted[2])
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, src.Pix[i+3]

			chosen := [3]uint8{r, g, b}
			for ch := range 3 {
				e := int(float64(adjusted[ch]-int(chosen[ch])) * strength)
				if x+1 < w {
					errCurr[ch][x+1] += e * wRight
				}
				if y+1 < h {
					if x > 0 {
						errNext[ch][x-1] += e * wDownLeft
					}
					errNext[ch][x] += e * wDown
					if x+1 < w {
						errNext[ch][x+1] += e * wDownRight
					}
				}
			}
		}

		for ch := range 3 {
			errCurr[ch], errNext[ch] = errNext[ch], errCurr[ch]
			clear(errNext[ch])
		}
	}
}

// nearest returns the palette color closest in sRGB, or the per channel level
func (c *PosterizeCommand) nearest(r, g, b int) (uint8, uint8, uint8) {
	if len(c.params.Palette) == 0 {
		return c.level(r), c.level(g), c.level(b)
	}

	best := c.params.Palette[0]
	bestDist := int(^uint(0) >> 1)
	for _, p := range c.params.Palette {
		dr, dg, db := r-int(p.R), g-int(p.G), b-int(p.B)
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			bestDist = dist
			best = p
		}
	}
	return best.R, best.G, best.B
}

func (c *PosterizeCommand) level(v int) uint8 {
	steps := c.params.Levels - 1
	q := (v*steps + 127) / 255
	return uint8((q*255 + steps/2) / steps)
}

// GetParams returns the typed parameters
func (c *PosterizeCommand) GetParams() *PosterizeParams {
	return c.params
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("PosterizeCommand", NewPosterizeCommand); err != nil {
		panic(fmt.Sprintf("failed to register PosterizeCommand: %v", err))
	}
}
