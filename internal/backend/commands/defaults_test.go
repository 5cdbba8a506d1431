package commands

import (
	"image/color"
	"testing"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
)

func TestDefaultCartoonCommands_AreRegistered(t *testing.T) {
	commands, err := commandstructure.DefaultRegistry.BuildCommands(DefaultCartoonCommands())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{"BilateralFilterCommand", "BilateralFilterCommand", "EdgeOverlayCommand", "SharpenCommand"}
	if len(commands) != len(want) {
		t.Fatalf("Expected %d commands, got %d", len(want), len(commands))
	}
	for i, cmd := range commands {
		if cmd.Name() != want[i] {
			t.Errorf("Command %d: expected %s, got %s", i, want[i], cmd.Name())
		}
	}

	second := commands[1].(*BilateralFilterCommand).GetParams()
	if second.Diameter != 7 || second.SigmaColor != 120 || second.SigmaSpace != 120 {
		t.Errorf("Unexpected second bilateral pass %+v", second)
	}
}

func TestDefaultCartoonCommands_Pipeline(t *testing.T) {
	src := newGradientImage(24, 18)
	src.SetNRGBA(3, 3, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	out, err := commandstructure.ExecuteCommands(commandstructure.NewFrame(src), DefaultCartoonCommands())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("Expected bounds %v, got %v", src.Bounds(), out.Bounds())
	}
	if got := out.Image.NRGBAAt(3, 3).A; got != 128 {
		t.Errorf("Expected alpha to pass through the pipeline, got %d", got)
	}
	if got := out.Source.NRGBAAt(3, 3); got != src.NRGBAAt(3, 3) {
		t.Errorf("Expected source to stay untouched, got %v", got)
	}
}
