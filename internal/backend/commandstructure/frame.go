package commandstructure

import (
	"image"
	"image/draw"
)

// Frame is the unit of work passed through a command pipeline.
// Source holds the decoded upload and must not be modified by commands.
// Image holds the working image produced by the previous command.
type Frame struct {
	Source *image.NRGBA
	Image  *image.NRGBA
}

// NewFrame creates a frame whose working image starts as a copy of the source
func NewFrame(src image.Image) *Frame {
	source := ToNRGBA(src)
	return &Frame{
		Source: source,
		Image:  cloneNRGBA(source),
	}
}

// WithImage returns a frame sharing the source with a new working image
func (f *Frame) WithImage(img *image.NRGBA) *Frame {
	return &Frame{
		Source: f.Source,
		Image:  img,
	}
}

// Bounds returns the bounds of the working image
func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// ToNRGBA converts any image to *image.NRGBA with min-point at (0, 0)
func ToNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && bounds.Min == (image.Point{}) {
		return nrgba
	}
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
