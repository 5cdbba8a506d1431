package segmentation

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func newOpaqueImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestApplyMask_SameSize(t *testing.T) {
	img := newOpaqueImage(4, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	mask := &Mask{Width: 4, Height: 1, Values: []float32{0, 0.5, 0.51, 1}}

	out, err := ApplyMask(img, mask, 0.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	wantAlpha := []uint8{0, 0, 255, 255}
	for x, want := range wantAlpha {
		got := out.NRGBAAt(x, 0)
		if got.A != want {
			t.Errorf("Pixel %d: expected alpha %d, got %d", x, want, got.A)
		}
		if got.R != 10 || got.G != 20 || got.B != 30 {
			t.Errorf("Pixel %d: expected colour to be kept, got %v", x, got)
		}
	}
	if img.NRGBAAt(0, 0).A != 255 {
		t.Error("Expected input image to be untouched")
	}
}

func TestApplyMask_OnlyBinaryAlpha(t *testing.T) {
	img := newOpaqueImage(32, 16, color.NRGBA{R: 200, A: 255})
	mask := NewMask(8, 4)
	for i := range mask.Values {
		mask.Values[i] = float32(i) / float32(len(mask.Values))
	}

	out, err := ApplyMask(img, mask, 0.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		if a := out.Pix[i]; a != 0 && a != 255 {
			t.Fatalf("Expected alpha to be 0 or 255, got %d", a)
		}
	}
}

func TestApplyMask_ResizesMask(t *testing.T) {
	img := newOpaqueImage(4, 2, color.NRGBA{G: 99, A: 255})
	mask := &Mask{Width: 2, Height: 1, Values: []float32{0, 1}}

	out, err := ApplyMask(img, mask, 0.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Bounds() != img.Bounds() {
		t.Fatalf("Expected bounds %v, got %v", img.Bounds(), out.Bounds())
	}
	for y := 0; y < 2; y++ {
		if a := out.NRGBAAt(0, y).A; a != 0 {
			t.Errorf("Expected left edge transparent at y=%d, got %d", y, a)
		}
		if a := out.NRGBAAt(3, y).A; a != 255 {
			t.Errorf("Expected right edge opaque at y=%d, got %d", y, a)
		}
	}
}

func TestApplyMask_InvalidInput(t *testing.T) {
	img := newOpaqueImage(2, 2, color.NRGBA{A: 255})

	tests := []struct {
		name      string
		mask      *Mask
		threshold float64
	}{
		{"short values", &Mask{Width: 2, Height: 2, Values: []float32{1}}, 0.5},
		{"zero size", &Mask{}, 0.5},
		{"threshold above one", NewMask(2, 2), 1.5},
		{"negative threshold", NewMask(2, 2), -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ApplyMask(img, tt.mask, tt.threshold); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestResizeMask_ClampsValues(t *testing.T) {
	mask := &Mask{Width: 2, Height: 1, Values: []float32{-3, 7}}

	out := ResizeMask(mask, 2, 1)
	if got := out.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	if got := out.Gray16At(1, 0).Y; got != 0xffff {
		t.Errorf("Expected 65535, got %d", got)
	}
}

func TestNewOnnxSegmenter_MissingModel(t *testing.T) {
	_, err := NewOnnxSegmenter(Config{ModelPath: filepath.Join(t.TempDir(), "selfie.onnx")})
	if err == nil {
		t.Fatal("Expected error for missing model, got nil")
	}
}
