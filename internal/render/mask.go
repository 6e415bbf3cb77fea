package render

import (
	"image"
	"image/draw"

	"github.com/gogpu/gg"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/palette"
)

// RenderMask flattens mask paths into a single w×h image: each path is a
// white stroke of its own width over an opaque black background.
func RenderMask(paths []editstate.Path, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)
	if len(paths) == 0 || w <= 0 || h <= 0 {
		return out
	}
	dc := gg.NewContext(w, h)
	defer dc.Close()
	white := palette.Color{R: 255, G: 255, B: 255, A: 255}
	for _, p := range paths {
		p.Color = white
		strokePath(dc, p)
	}
	layer := dc.Image()
	draw.Draw(out, out.Bounds(), layer, layer.Bounds().Min, draw.Over)
	return out
}
