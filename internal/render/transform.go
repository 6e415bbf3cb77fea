package render

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
)

// ApplyTransforms draws src centered on a canvas sized to its rotated
// bounding box, rotated clockwise by t.Rotation and mirrored per the flip
// flags. Quarter turns and flips are exact pixel remaps.
func ApplyTransforms(src *image.RGBA, t editstate.Transforms) *image.RGBA {
	t = t.Normalized()
	if t.IsIdentity() {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	cw, ch := geom.RotatedExtent(w, h, t.Rotation)
	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))

	fx, fy := 1.0, 1.0
	if t.FlipH {
		fx = -1
	}
	if t.FlipV {
		fy = -1
	}
	if c, s, ok := quarterTurn(t.Rotation); ok {
		remapExact(dst, src, c, s, fx, fy)
		return dst
	}

	rad := t.Rotation * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	// src -> dst: translate to center, flip, rotate, translate to canvas center.
	a00, a01 := c*fx, -s*fy
	a10, a11 := s*fx, c*fy
	hw, hh := float64(w)/2, float64(h)/2
	tx := float64(cw)/2 - (a00*hw + a01*hh)
	ty := float64(ch)/2 - (a10*hw + a11*hh)
	m := f64.Aff3{a00, a01, tx, a10, a11, ty}
	xdraw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Src, nil)
	return dst
}

func quarterTurn(deg float64) (c, s float64, ok bool) {
	switch deg {
	case 0:
		return 1, 0, true
	case 90:
		return 0, 1, true
	case 180:
		return -1, 0, true
	case 270:
		return 0, -1, true
	}
	return 0, 0, false
}

// remapExact samples src for every dst pixel center through the inverse
// transform. With integral c and s every lookup lands on a source pixel.
func remapExact(dst, src *image.RGBA, c, s, fx, fy float64) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	cw, ch := dst.Bounds().Dx(), dst.Bounds().Dy()
	sb := src.Bounds().Min
	for y := 0; y < ch; y++ {
		dy := float64(y) + 0.5 - float64(ch)/2
		for x := 0; x < cw; x++ {
			dx := float64(x) + 0.5 - float64(cw)/2
			px := fx*(c*dx+s*dy) + float64(w)/2
			py := fy*(-s*dx+c*dy) + float64(h)/2
			sx, sy := int(math.Floor(px)), int(math.Floor(py))
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			si := src.PixOffset(sb.X+sx, sb.Y+sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}
