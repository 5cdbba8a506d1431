package segmentation

import (
	"context"
	"fmt"
	"image"
)

// Mask is a foreground probability map stored row-major with values in [0, 1]
type Mask struct {
	Width  int
	Height int
	Values []float32
}

// NewMask allocates an all-background mask
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Values: make([]float32, width*height),
	}
}

// At returns the probability at (x, y)
func (m *Mask) At(x, y int) float32 {
	return m.Values[y*m.Width+x]
}

// Validate checks that the value buffer matches the dimensions
func (m *Mask) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid mask dimensions %dx%d", m.Width, m.Height)
	}
	if len(m.Values) != m.Width*m.Height {
		return fmt.Errorf("mask has %d values, expected %d", len(m.Values), m.Width*m.Height)
	}
	return nil
}

// Segmenter separates a person from the background
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (*Mask, error)
	Close() error
}

// Config describes the segmentation model
type Config struct {
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	InputWidth        int
	InputHeight       int
}
