package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/example/studio/internal/editstate"
)

// colorMatrix maps normalized (r,g,b) to new values. Each row is
// r,g,b coefficients followed by a constant offset.
type colorMatrix [3][4]float64

func (m colorMatrix) apply(c [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		v := m[i][0]*c[0] + m[i][1]*c[1] + m[i][2]*c[2] + m[i][3]
		out[i] = clamp01(v)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func brightnessMatrix(amount float64) colorMatrix {
	return colorMatrix{
		{amount, 0, 0, 0},
		{0, amount, 0, 0},
		{0, 0, amount, 0},
	}
}

func contrastMatrix(amount float64) colorMatrix {
	off := 0.5 - 0.5*amount
	return colorMatrix{
		{amount, 0, 0, off},
		{0, amount, 0, off},
		{0, 0, amount, off},
	}
}

func saturateMatrix(s float64) colorMatrix {
	return colorMatrix{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s, 0},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s, 0},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s, 0},
	}
}

func grayscaleMatrix(amount float64) colorMatrix {
	s := 1 - amount
	return colorMatrix{
		{0.2126 + 0.7874*s, 0.7152 - 0.7152*s, 0.0722 - 0.0722*s, 0},
		{0.2126 - 0.2126*s, 0.7152 + 0.2848*s, 0.0722 - 0.0722*s, 0},
		{0.2126 - 0.2126*s, 0.7152 - 0.7152*s, 0.0722 + 0.9278*s, 0},
	}
}

func sepiaMatrix(amount float64) colorMatrix {
	s := 1 - amount
	return colorMatrix{
		{0.393 + 0.607*s, 0.769 - 0.769*s, 0.189 - 0.189*s, 0},
		{0.349 - 0.349*s, 0.686 + 0.314*s, 0.168 - 0.168*s, 0},
		{0.272 - 0.272*s, 0.534 - 0.534*s, 0.131 + 0.869*s, 0},
	}
}

func invertMatrix(amount float64) colorMatrix {
	k := 1 - 2*amount
	return colorMatrix{
		{k, 0, 0, amount},
		{0, k, 0, amount},
		{0, 0, k, amount},
	}
}

func hueRotateMatrix(deg float64) colorMatrix {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return colorMatrix{
		{0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928, 0},
		{0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283, 0},
		{0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072, 0},
	}
}

// preBlurChain returns the color steps that run before the blur, in
// brightness, contrast, saturate, grayscale, sepia, invert order. Neutral
// steps are omitted.
func preBlurChain(a editstate.Adjustments) []colorMatrix {
	var chain []colorMatrix
	if a.Brightness != 100 {
		chain = append(chain, brightnessMatrix(a.Brightness/100))
	}
	if a.Contrast != 100 {
		chain = append(chain, contrastMatrix(a.Contrast/100))
	}
	if a.Saturation != 100 {
		chain = append(chain, saturateMatrix(a.Saturation/100))
	}
	if a.Grayscale != 0 {
		chain = append(chain, grayscaleMatrix(a.Grayscale/100))
	}
	if a.Sepia != 0 {
		chain = append(chain, sepiaMatrix(a.Sepia/100))
	}
	if a.Invert != 0 {
		chain = append(chain, invertMatrix(a.Invert/100))
	}
	return chain
}

// ApplyAdjustments returns a filtered copy of src. Neutral adjustments
// return an exact copy.
func ApplyAdjustments(src image.Image, a editstate.Adjustments) *image.RGBA {
	a = a.Clamped()
	if a.IsNeutral() {
		return toRGBA(src)
	}
	out := toRGBA(src)
	if chain := preBlurChain(a); len(chain) > 0 {
		applyChain(out, chain)
	}
	if a.Blur > 0 {
		out = gaussianApprox(out, a.Blur)
	}
	if hue := math.Mod(a.HueRotate, 360); hue != 0 {
		applyChain(out, []colorMatrix{hueRotateMatrix(hue)})
	}
	return out
}

// applyChain runs the matrices over img in place. Pixels are
// unpremultiplied before the color math and premultiplied again after.
func applyChain(img *image.RGBA, chain []colorMatrix) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			px := row[x*4 : x*4+4]
			a := float64(px[3]) / 255
			if a == 0 {
				continue
			}
			c := [3]float64{float64(px[0]) / 255 / a, float64(px[1]) / 255 / a, float64(px[2]) / 255 / a}
			for i := range c {
				c[i] = clamp01(c[i])
			}
			for _, m := range chain {
				c = m.apply(c)
			}
			px[0] = uint8(math.Round(c[0] * a * 255))
			px[1] = uint8(math.Round(c[1] * a * 255))
			px[2] = uint8(math.Round(c[2] * a * 255))
		}
	}
}

// gaussianApprox approximates a Gaussian blur with standard deviation
// sigma by three box blur passes.
func gaussianApprox(img *image.RGBA, sigma float64) *image.RGBA {
	radius := int(math.Round((math.Sqrt(4*sigma*sigma+1) - 1) / 2))
	if radius < 1 {
		radius = 1
	}
	out := img
	for i := 0; i < 3; i++ {
		out = blurRGBA(out, radius)
	}
	return out
}

// blurRGBA is a separable box blur using running prefix sums per channel.
// Operating on premultiplied values keeps transparent edges from bleeding
// dark fringes.
func blurRGBA(src *image.RGBA, radius int) *image.RGBA {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if radius <= 0 || w == 0 || h == 0 {
		out := image.NewRGBA(bounds)
		copy(out.Pix, src.Pix)
		return out
	}
	tmp := image.NewRGBA(bounds)
	dst := image.NewRGBA(bounds)

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		rowStart := y * src.Stride
		for ch := 0; ch < 4; ch++ {
			for x := 0; x < w; x++ {
				prefix[x+1] = prefix[x] + int(src.Pix[rowStart+x*4+ch])
			}
			for x := 0; x < w; x++ {
				x0 := max(x-radius, 0)
				x1 := min(x+radius, w-1)
				tmp.Pix[y*tmp.Stride+x*4+ch] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
			}
		}
	}
	for x := 0; x < w; x++ {
		for ch := 0; ch < 4; ch++ {
			for y := 0; y < h; y++ {
				prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x*4+ch])
			}
			for y := 0; y < h; y++ {
				y0 := max(y-radius, 0)
				y1 := min(y+radius, h-1)
				dst.Pix[y*dst.Stride+x*4+ch] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
			}
		}
	}
	return dst
}

// toRGBA returns a zero-origin RGBA copy of img.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
