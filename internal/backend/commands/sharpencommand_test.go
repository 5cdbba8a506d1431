package commands

import (
	"image"
	"image/color"
	"testing"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

func TestNewSharpenParamsFromMap(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"defaults", map[string]any{}, false},
		{"zero sigma", map[string]any{"sigma": 0.0}, true},
		{"negative strength", map[string]any{"strength": -0.1}, true},
		{"zero strength", map[string]any{"strength": 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSharpenParamsFromMap(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSharpenCommand_ZeroStrengthReturnsFrame(t *testing.T) {
	command, _ := NewSharpenCommand(map[string]any{"strength": 0.0})
	frame := commandstructure.NewFrame(newGradientImage(8, 8))

	out, err := command.Execute(frame)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out != frame {
		t.Error("Expected the same frame when strength is zero")
	}
}

func TestSharpenCommand_UniformImageUnchanged(t *testing.T) {
	command, _ := NewSharpenCommand(map[string]any{})
	src := newUniformImage(16, 16, color.NRGBA{R: 80, G: 160, B: 240, A: 255})

	out := executeCommand(t, command, src)
	for _, p := range []image.Point{{8, 8}, {0, 0}, {15, 0}, {0, 15}, {15, 15}} {
		got := out.NRGBAAt(p.X, p.Y)
		if absDiff(got.R, 80) > 1 || absDiff(got.G, 160) > 1 || absDiff(got.B, 240) > 1 {
			t.Errorf("Expected uniform colour to survive sharpening at %v, got %v", p, got)
		}
	}
}

func TestSharpenCommand_IncreasesEdgeContrast(t *testing.T) {
	command, _ := NewSharpenCommand(map[string]any{})
	dark := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	light := color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	src := newSplitImage(32, 8, dark, light)

	out := executeCommand(t, command, src)
	if got := out.NRGBAAt(15, 4); got.R >= 100 {
		t.Errorf("Expected dark side next to the edge below 100, got %v", got)
	}
	if got := out.NRGBAAt(16, 4); got.R <= 150 {
		t.Errorf("Expected light side next to the edge above 150, got %v", got)
	}
}
