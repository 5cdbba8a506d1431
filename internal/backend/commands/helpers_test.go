package commands

import (
	"image"
	"image/color"
	"testing"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

func newUniformImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// newSplitImage returns an image whose left half is left and right half is right
func newSplitImage(width, height int, left, right color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetNRGBA(x, y, left)
			} else {
				img.SetNRGBA(x, y, right)
			}
		}
	}
	return img
}

// newGradientImage returns a deterministic image with some texture
func newGradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: uint8(((x + y) * 7) % 256),
				A: 255,
			})
		}
	}
	return img
}

func executeCommand(t *testing.T, cmd commandstructure.Command, img *image.NRGBA) *image.NRGBA {
	t.Helper()
	out, err := cmd.Execute(commandstructure.NewFrame(img))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out == nil || out.Image == nil {
		t.Fatal("Expected a frame with an image")
	}
	return out.Image
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// newStripeImage returns an image that is left up to column split and right after it
func newStripeImage(width, height, split int, left, right color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < split {
				img.SetNRGBA(x, y, left)
			} else {
				img.SetNRGBA(x, y, right)
			}
		}
	}
	return img
}
