package commands

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// grayPlane is a single channel 8-bit image stored row-major without padding
type grayPlane struct {
	width  int
	height int
	pix    []uint8
}

func newGrayPlane(width, height int) *grayPlane {
	return &grayPlane{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height),
	}
}

func (g *grayPlane) at(x, y int) uint8 {
	return g.pix[y*g.width+x]
}

// toGrayPlane converts an image to luma using BT.601 weights (0.299, 0.587, 0.114)
func toGrayPlane(img image.Image) *grayPlane {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	plane := newGrayPlane(bounds.Dx(), bounds.Dy())
	parallelFor(plane.height, func(y int) {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < plane.width; x++ {
			plane.pix[y*plane.width+x] = row[x*4]
		}
	})
	return plane
}

// reflect101 maps an out of range coordinate back into [0, n) mirroring around
// the edge pixels without repeating them (gfedcb|abcdefgh|gfedcba)
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// replicate clamps a coordinate into [0, n) (aaaaaa|abcdefgh|hhhhhhh)
func replicate(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// saturate rounds to nearest and clamps to the uint8 range
func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// medianBlur replaces each pixel with the median of its ksize x ksize
// neighbourhood. Borders are replicated.
func medianBlur(src *grayPlane, ksize int) *grayPlane {
	dst := newGrayPlane(src.width, src.height)
	radius := ksize / 2
	parallelFor(src.height, func(y int) {
		var hist [256]int
		window := ksize * ksize
		half := window / 2
		for x := 0; x < src.width; x++ {
			for i := range hist {
				hist[i] = 0
			}
			for ky := -radius; ky <= radius; ky++ {
				sy := replicate(y+ky, src.height)
				for kx := -radius; kx <= radius; kx++ {
					hist[src.at(replicate(x+kx, src.width), sy)]++
				}
			}
			count := 0
			for v := 0; v < 256; v++ {
				count += hist[v]
				if count > half {
					dst.pix[y*dst.width+x] = uint8(v)
					break
				}
			}
		}
	})
	return dst
}

// adaptiveThresholdMean marks a pixel white when it is brighter than the mean
// of its blockSize x blockSize neighbourhood minus offset, black otherwise.
// Borders are replicated.
func adaptiveThresholdMean(src *grayPlane, maxValue uint8, blockSize int, offset float64) *grayPlane {
	dst := newGrayPlane(src.width, src.height)
	radius := blockSize / 2
	area := float64(blockSize * blockSize)
	delta := int(math.Ceil(offset))

	// Integral image over the replicated border so every window sum is a lookup
	pw := src.width + 2*radius
	ph := src.height + 2*radius
	integral := make([]int64, (pw+1)*(ph+1))
	for y := 0; y < ph; y++ {
		sy := replicate(y-radius, src.height)
		var rowSum int64
		for x := 0; x < pw; x++ {
			rowSum += int64(src.at(replicate(x-radius, src.width), sy))
			integral[(y+1)*(pw+1)+x+1] = integral[y*(pw+1)+x+1] + rowSum
		}
	}

	parallelFor(src.height, func(y int) {
		y0, y1 := y, y+blockSize
		for x := 0; x < src.width; x++ {
			x0, x1 := x, x+blockSize
			sum := integral[y1*(pw+1)+x1] - integral[y0*(pw+1)+x1] - integral[y1*(pw+1)+x0] + integral[y0*(pw+1)+x0]
			mean := int(math.Round(float64(sum) / area))
			if int(src.at(x, y))-mean > -delta {
				dst.pix[y*dst.width+x] = maxValue
			}
		}
	})
	return dst
}

// gaussianBlur3 applies the separable [1 2 1]/4 kernel, the 3x3 Gaussian
// used when sigma is derived from the kernel size. Borders are reflected.
func gaussianBlur3(src *grayPlane) *grayPlane {
	tmp := make([]float64, len(src.pix))
	parallelFor(src.height, func(y int) {
		for x := 0; x < src.width; x++ {
			l := float64(src.at(reflect101(x-1, src.width), y))
			c := float64(src.at(x, y))
			r := float64(src.at(reflect101(x+1, src.width), y))
			tmp[y*src.width+x] = 0.25*l + 0.5*c + 0.25*r
		}
	})

	dst := newGrayPlane(src.width, src.height)
	parallelFor(src.height, func(y int) {
		up := reflect101(y-1, src.height) * src.width
		mid := y * src.width
		down := reflect101(y+1, src.height) * src.width
		for x := 0; x < src.width; x++ {
			dst.pix[mid+x] = saturate(0.25*tmp[up+x] + 0.5*tmp[mid+x] + 0.25*tmp[down+x])
		}
	})
	return dst
}

// addWeighted computes alpha*a + beta*b + gamma per color channel with
// saturation. The alpha channel of a is kept.
func addWeighted(a *image.NRGBA, alpha float64, b *image.NRGBA, beta float64, gamma float64) *image.NRGBA {
	bounds := a.Bounds()
	dst := image.NewNRGBA(bounds)
	width := bounds.Dx()
	parallelFor(bounds.Dy(), func(y int) {
		ai := y * a.Stride
		bi := y * b.Stride
		di := y * dst.Stride
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				dst.Pix[di+c] = saturate(alpha*float64(a.Pix[ai+c]) + beta*float64(b.Pix[bi+c]) + gamma)
			}
			dst.Pix[di+3] = a.Pix[ai+3]
			ai += 4
			bi += 4
			di += 4
		}
	})
	return dst
}

// grayToNRGBA expands a gray plane into an opaque three channel image
func grayToNRGBA(src *grayPlane) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, src.width, src.height))
	parallelFor(src.height, func(y int) {
		di := y * dst.Stride
		for x := 0; x < src.width; x++ {
			v := src.at(x, y)
			dst.Pix[di] = v
			dst.Pix[di+1] = v
			dst.Pix[di+2] = v
			dst.Pix[di+3] = 0xff
			di += 4
		}
	})
	return dst
}
