package facedetect

import (
	"image"
	"image/color"
	"testing"
)

func TestMarkFaces(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	out := MarkFaces(src, []Face{{Bounds: image.Rect(10, 20, 40, 50), Score: 7.5}})

	if out.Bounds() != src.Bounds() {
		t.Fatalf("Expected bounds %v, got %v", src.Bounds(), out.Bounds())
	}
	r, g, b, _ := out.At(10, 35).RGBA()
	if r>>8 < 200 || g>>8 > 80 || b>>8 > 80 {
		t.Errorf("Expected a red outline at the left edge, got %v", color.RGBA64{uint16(r), uint16(g), uint16(b), 0xffff})
	}
	if got := src.NRGBAAt(10, 35); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Expected source to be untouched, got %v", got)
	}
}
