package commands

import "github.com/jo-hoe/cartoonify/internal/backend/commandstructure"

// DefaultCartoonCommands returns the cartoon pipeline used when no commands are configured:
// two bilateral passes, an edge overlay from the source photo and a final unsharp mask.
func DefaultCartoonCommands() []commandstructure.CommandConfig {
	return []commandstructure.CommandConfig{
		{
			Name: "BilateralFilterCommand",
			Params: map[string]any{
				"diameter":   9,
				"sigmaColor": 180.0,
				"sigmaSpace": 180.0,
			},
		},
		{
			Name: "BilateralFilterCommand",
			Params: map[string]any{
				"diameter":   7,
				"sigmaColor": 120.0,
				"sigmaSpace": 120.0,
			},
		},
		{
			Name: "EdgeOverlayCommand",
			Params: map[string]any{
				"medianKernel": 5,
				"blockSize":    9,
				"offset":       7.0,
				"edgeBlur":     true,
				"colorWeight":  0.88,
				"edgeWeight":   0.12,
			},
		},
		{
			Name: "SharpenCommand",
			Params: map[string]any{
				"sigma":    1.5,
				"strength": 0.4,
			},
		},
	}
}
