package commands

import (
	"image/color"
	"testing"
)

func TestNewBilateralFilterCommand_Defaults(t *testing.T) {
	command, err := NewBilateralFilterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	bilateral, ok := command.(*BilateralFilterCommand)
	if !ok {
		t.Fatal("Expected command to be *BilateralFilterCommand")
	}
	if bilateral.Name() != "BilateralFilterCommand" {
		t.Errorf("Expected name 'BilateralFilterCommand', got '%s'", bilateral.Name())
	}

	params := bilateral.GetParams()
	if params.Diameter != 9 || params.SigmaColor != 180 || params.SigmaSpace != 180 {
		t.Errorf("Unexpected default params %+v", params)
	}
}

func TestNewBilateralParamsFromMap(t *testing.T) {
	tests := []struct {
		name         string
		params       map[string]any
		wantDiameter int
		wantErr      bool
	}{
		{"explicit", map[string]any{"diameter": 7, "sigmaColor": 120.0, "sigmaSpace": 120.0}, 7, false},
		{"diameter derived from sigmaSpace", map[string]any{"diameter": 0, "sigmaSpace": 2.0}, 7, false},
		{"zero sigmaColor", map[string]any{"sigmaColor": 0.0}, 0, true},
		{"negative sigmaSpace", map[string]any{"sigmaSpace": -1.0}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := NewBilateralParamsFromMap(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if params.Diameter != tt.wantDiameter {
				t.Errorf("Expected diameter %d, got %d", tt.wantDiameter, params.Diameter)
			}
		})
	}
}

func TestBilateralFilterCommand_UniformImageUnchanged(t *testing.T) {
	command, _ := NewBilateralFilterCommand(map[string]any{})
	src := newUniformImage(16, 16, color.NRGBA{R: 30, G: 120, B: 220, A: 255})

	out := executeCommand(t, command, src)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := out.NRGBAAt(x, y); got != src.NRGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d) changed from %v to %v", x, y, src.NRGBAAt(x, y), got)
			}
		}
	}
}

func TestBilateralFilterCommand_PreservesStrongEdges(t *testing.T) {
	command, _ := NewBilateralFilterCommand(map[string]any{})
	black := color.NRGBA{A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	src := newSplitImage(20, 10, black, white)

	out := executeCommand(t, command, src)
	for y := 0; y < 10; y++ {
		if got := out.NRGBAAt(9, y); got.R > 1 {
			t.Errorf("Expected dark side of the edge to stay dark at y=%d, got %v", y, got)
		}
		if got := out.NRGBAAt(10, y); got.R < 254 {
			t.Errorf("Expected bright side of the edge to stay bright at y=%d, got %v", y, got)
		}
	}
}

func TestBilateralFilterCommand_SmoothsSmallNoise(t *testing.T) {
	command, _ := NewBilateralFilterCommand(map[string]any{})
	src := newUniformImage(11, 11, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	src.SetNRGBA(5, 5, color.NRGBA{R: 120, G: 100, B: 100, A: 255})

	out := executeCommand(t, command, src)
	if got := out.NRGBAAt(5, 5); got.R >= 120 || got.R < 100 {
		t.Errorf("Expected noisy pixel to move toward its neighbours, got %v", got)
	}
}

func TestBilateralFilterCommand_KeepsAlpha(t *testing.T) {
	command, _ := NewBilateralFilterCommand(map[string]any{"diameter": 3})
	src := newUniformImage(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 77})

	out := executeCommand(t, command, src)
	if got := out.NRGBAAt(2, 2).A; got != 77 {
		t.Errorf("Expected alpha 77, got %d", got)
	}
}
