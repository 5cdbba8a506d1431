package commands

import (
	"image/color"
	"testing"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

func TestNewCropCommand(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"height": 512, "width": 512}, false},
		{"missing width", map[string]any{"height": 512}, true},
		{"zero height", map[string]any{"height": 0, "width": 512}, true},
		{"negative width", map[string]any{"height": 512, "width": -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewCropCommand(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			cropCmd := command.(*CropCommand)
			if cropCmd.GetHeight() != 512 || cropCmd.GetWidth() != 512 {
				t.Errorf("Unexpected params %+v", cropCmd.GetParams())
			}
		})
	}
}

func TestCropCommand_Execute(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cropW, cropH  int
		wantW, wantH  int
	}{
		{"square from landscape", 800, 600, 600, 600, 600, 600},
		{"larger than image", 300, 200, 400, 400, 300, 200},
		{"one dimension limited", 300, 200, 100, 400, 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewCropCommand(map[string]any{"width": tt.cropW, "height": tt.cropH})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			frame, err := command.Execute(commandstructure.NewFrame(newGradientImage(tt.width, tt.height)))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got := frame.Bounds().Size(); got.X != tt.wantW || got.Y != tt.wantH {
				t.Errorf("Image size = %v, want %dx%d", got, tt.wantW, tt.wantH)
			}
			if frame.Source.Bounds() != frame.Image.Bounds() {
				t.Errorf("Source %v and image %v are no longer aligned", frame.Source.Bounds(), frame.Image.Bounds())
			}
		})
	}
}

func TestCropCommand_KeepsCenter(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	command, err := NewCropCommand(map[string]any{"width": 20, "height": 10})
	if err != nil {
		t.Fatal(err)
	}

	out := executeCommand(t, command, newSplitImage(100, 10, red, blue))
	if got := out.NRGBAAt(0, 5); got != red {
		t.Errorf("left edge = %v, want red", got)
	}
	if got := out.NRGBAAt(19, 5); got != blue {
		t.Errorf("right edge = %v, want blue", got)
	}
}

func TestCropCommand_CropsLargerSourceProportionally(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	// red up to 80% of the width in both images
	working := newStripeImage(100, 10, 80, red, blue)
	source := newStripeImage(200, 20, 160, red, blue)

	command, err := NewCropCommand(map[string]any{"width": 20, "height": 10})
	if err != nil {
		t.Fatal(err)
	}
	out, err := command.Execute(&commandstructure.Frame{Source: source, Image: working})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if out.Source.Bounds() != out.Image.Bounds() {
		t.Fatalf("Source %v and image %v are not aligned", out.Source.Bounds(), out.Image.Bounds())
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if got := out.Source.NRGBAAt(x, y); got.B > got.R {
				t.Fatalf("source (%d,%d) = %v, want the red centre region", x, y, got)
			}
		}
	}
}

func TestScaleThenCrop_KeepsSourceAligned(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	scale, _ := NewScaleCommandWithParams(100, 100)
	crop, _ := NewCropCommand(map[string]any{"width": 70, "height": 70})

	frame := commandstructure.NewFrame(newStripeImage(200, 100, 160, red, blue))
	frame, err := scale.Execute(frame)
	if err != nil {
		t.Fatal(err)
	}
	frame, err = crop.Execute(frame)
	if err != nil {
		t.Fatal(err)
	}

	if frame.Source.Bounds() != frame.Image.Bounds() {
		t.Fatalf("Source %v and image %v are not aligned", frame.Source.Bounds(), frame.Image.Bounds())
	}
	for _, x := range []int{0, 30, 60, 69} {
		src, img := frame.Source.NRGBAAt(x, 25), frame.Image.NRGBAAt(x, 25)
		if (src.R > src.B) != (img.R > img.B) {
			t.Errorf("column %d: source %v does not match image %v", x, src, img)
		}
	}
}
