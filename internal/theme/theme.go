package theme

import (
	"github.com/example/studio/internal/palette"
)

// Theme defines the colors of the editor chrome and of the editing
// overlays drawn on top of the canvas.
type Theme struct {
	Name string

	// Window chrome
	Background        palette.Color
	Foreground        palette.Color
	ToolbarBackground palette.Color
	ButtonBackground  palette.Color
	ButtonActive      palette.Color
	ButtonText        palette.Color
	StatusBackground  palette.Color

	// Canvas backdrop behind transparent pixels
	CheckerLight palette.Color
	CheckerDark  palette.Color

	// Editing overlays
	CropDim        palette.Color // drawn outside the crop rectangle
	CropBorder     palette.Color
	SelectionLight palette.Color // alternating dash colors of the selection box
	SelectionDark  palette.Color
	MaskBrush      palette.Color // removal mask strokes while the remove tool is active
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        palette.Color{R: 220, G: 220, B: 220, A: 255},
		Foreground:        palette.Color{A: 255},
		ToolbarBackground: palette.Color{R: 220, G: 220, B: 220, A: 255},
		ButtonBackground:  palette.Color{R: 200, G: 200, B: 200, A: 255},
		ButtonActive:      palette.Color{R: 150, G: 150, B: 150, A: 255},
		ButtonText:        palette.Color{A: 255},
		StatusBackground:  palette.Color{R: 255, G: 255, B: 255, A: 230},
		CheckerLight:      palette.Color{R: 220, G: 220, B: 220, A: 255},
		CheckerDark:       palette.Color{R: 192, G: 192, B: 192, A: 255},
		CropDim:           palette.Color{A: 128},
		CropBorder:        palette.Color{R: 255, G: 255, B: 255, A: 255},
		SelectionLight:    palette.Color{R: 255, G: 255, B: 255, A: 255},
		SelectionDark:     palette.Color{R: 0, G: 120, B: 255, A: 255},
		MaskBrush:         palette.Color{R: 255, G: 0, B: 0, A: 128},
	}
}
