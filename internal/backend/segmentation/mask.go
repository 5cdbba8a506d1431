package segmentation

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ApplyMask returns a copy of img whose alpha is 255 where the resized mask is
// above threshold and 0 everywhere else. Colour channels are kept.
func ApplyMask(img image.Image, mask *Mask, threshold float64) (*image.NRGBA, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0, 1], got %f", threshold)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	if mask.Width == width && mask.Height == height {
		// Same resolution: compare the probabilities directly
		for y := 0; y < height; y++ {
			di := y * dst.Stride
			for x := 0; x < width; x++ {
				dst.Pix[di+3] = alphaFor(float64(mask.At(x, y)) > threshold)
				di += 4
			}
		}
		return dst, nil
	}

	scaled := ResizeMask(mask, width, height)
	cut := threshold * 0xffff
	for y := 0; y < height; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		di := y * dst.Stride
		for x := 0; x < width; x++ {
			v := uint16(row[2*x])<<8 | uint16(row[2*x+1])
			dst.Pix[di+3] = alphaFor(float64(v) > cut)
			di += 4
		}
	}
	return dst, nil
}

func alphaFor(foreground bool) uint8 {
	if foreground {
		return 0xff
	}
	return 0
}

// ResizeMask bilinearly scales the mask into a 16-bit gray image of the given size
func ResizeMask(mask *Mask, width, height int) *image.Gray16 {
	src := image.NewGray16(image.Rect(0, 0, mask.Width, mask.Height))
	for i, v := range mask.Values {
		switch {
		case v <= 0:
			v = 0
		case v >= 1:
			v = 1
		}
		q := uint16(math.Round(float64(v) * 0xffff))
		src.Pix[2*i] = uint8(q >> 8)
		src.Pix[2*i+1] = uint8(q)
	}

	if mask.Width == width && mask.Height == height {
		return src
	}
	dst := image.NewGray16(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
