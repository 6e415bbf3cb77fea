package viewer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/studio/internal/studio"
	"github.com/example/studio/internal/theme"
	"github.com/example/studio/internal/tool"
)

// paintState is everything a frame needs, captured on the event loop so
// drawing can happen off it.
type paintState struct {
	width, height int
	frame         *image.RGBA
	candidate     bool
	info          studio.Info
	settings      tool.Settings
	spots         []hotspot
	hover         int
	message       string
	typed         string
	typing        bool
	busy          []string
}

var backdropCache *image.RGBA

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// drawBackdrop fills r of dst with a cached checkerboard.
func drawBackdrop(dst *image.RGBA, r image.Rectangle, th *theme.Theme) {
	b := dst.Bounds()
	if backdropCache == nil || backdropCache.Bounds() != b {
		backdropCache = image.NewRGBA(b)
		drawCheckerboard(backdropCache, b, 8, th.CheckerLight, th.CheckerDark)
	}
	draw.Draw(dst, r, backdropCache, r.Min, draw.Src)
}

func drawRect(dst *image.RGBA, r image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

func drawLabel(dst *image.RGBA, x, y int, s string, col color.Color) int {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(s)
	return d.Dot.X.Ceil()
}

func measure(s string) int {
	return (&font.Drawer{Face: basicfont.Face7x13}).MeasureString(s).Ceil()
}

// renderWindow renders a whole window frame into dst. It returns early, leaving
// dst partially drawn, when ctx is cancelled.
func renderWindow(ctx context.Context, dst *image.RGBA, th *theme.Theme, st paintState) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)
	l := newLayout(st.width, st.height, st.frame)

	if st.frame != nil {
		cr := l.canvasRect()
		drawBackdrop(dst, cr, th)
		if ctx.Err() != nil {
			return
		}
		xdraw.NearestNeighbor.Scale(dst, cr, st.frame, st.frame.Bounds(), draw.Over, nil)
		if st.candidate {
			drawRect(dst, cr.Inset(-2), th.ButtonActive, 2)
		}
	}
	if ctx.Err() != nil {
		return
	}

	if st.typing {
		p := l.toScreen(st.info.TextAnchor)
		drawLabel(dst, p.X, p.Y, st.typed+"|", st.settings.Color)
	}

	drawToolbar(dst, th, st)
	if ctx.Err() != nil {
		return
	}
	drawStatus(dst, th, st)
}

func drawToolbar(dst *image.RGBA, th *theme.Theme, st paintState) {
	bar := image.Rect(0, 0, toolbarWidth, st.height-statusHeight)
	draw.Draw(dst, bar, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for i, s := range st.spots {
		if s.swatch != nil {
			draw.Draw(dst, s.rect, &image.Uniform{*s.swatch}, image.Point{}, draw.Src)
			switch {
			case s.active:
				drawRect(dst, s.rect, th.Foreground, 2)
			case i == st.hover:
				drawRect(dst, s.rect, th.ButtonActive, 1)
			}
			continue
		}
		bg := th.ButtonBackground
		if s.active || i == st.hover {
			bg = th.ButtonActive
		}
		draw.Draw(dst, s.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
		drawLabel(dst, s.rect.Min.X+4, s.rect.Min.Y+13, s.label, th.ButtonText)
	}
}

// statusText summarizes the session for the status bar.
func statusText(st paintState) string {
	if st.message != "" {
		return st.message
	}
	in := st.info
	if in.Width == 0 {
		return "no image loaded"
	}
	parts := []string{
		in.Tool.String(),
		fmt.Sprintf("%dx%d", in.Width, in.Height),
		fmt.Sprintf("history %d/%d", in.HistoryIndex+1, in.HistoryLen),
	}
	if in.Pending {
		parts = append(parts, "pending")
	}
	if in.HasSubjectMask {
		parts = append(parts, "subject masked")
	}
	if len(st.busy) > 0 {
		parts = append(parts, "working: "+strings.Join(st.busy, ", "))
	}
	switch {
	case st.candidate:
		parts = append(parts, "Enter:accept Esc:discard")
	case st.typing:
		parts = append(parts, "Enter:place Esc:cancel")
	}
	return strings.Join(parts, " · ")
}

func drawStatus(dst *image.RGBA, th *theme.Theme, st paintState) {
	bar := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, bar, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)
	y := bar.Min.Y + 16
	x := drawLabel(dst, 4, y, statusText(st), th.Foreground)

	// Shortcut legend, right aligned, as much as fits.
	legend := strings.Join(hints(), "  ")
	for legend != "" && st.width-measure(legend)-4 < x+16 {
		i := strings.LastIndex(legend, "  ")
		if i < 0 {
			legend = ""
			break
		}
		legend = legend[:i]
	}
	if legend != "" {
		drawLabel(dst, st.width-measure(legend)-4, y, legend, th.Foreground)
	}
}
