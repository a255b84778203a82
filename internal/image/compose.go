package imagepkg

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/typeset"
)

// glowScale is the resolution divisor used to blur the avatar glow.
const glowScale = 4

// State is everything the composite depends on.
type State struct {
	Frame    image.Image
	Avatar   image.Image
	Name     string
	RoleUnit string
	Message  string
}

// Renderer draws the composite for a fixed layout.
type Renderer struct {
	layout config.Layout
	fonts  *Fonts
	logger zerolog.Logger
}

func NewRenderer(layout config.Layout, fonts *Fonts) *Renderer {
	return &Renderer{
		layout: layout,
		fonts:  fonts,
		logger: log.With().Str("module", "render").Logger(),
	}
}

// Layout returns the layout the renderer draws with.
func (r *Renderer) Layout() config.Layout { return r.layout }

// Render draws the full composite from scratch: frame, avatar, then the
// name, role/unit and message blocks, watermark and optional QR badge.
func (r *Renderer) Render(st State) *image.RGBA {
	l := r.layout
	dc := gg.NewContext(l.FrameWidth, l.FrameHeight)
	dc.SetHexColor(l.Background)
	dc.Clear()

	if st.Frame != nil {
		dc.DrawImage(fitFrame(st.Frame, l.FrameWidth, l.FrameHeight), 0, 0)
	}
	if st.Avatar != nil {
		r.drawAvatar(dc, st.Avatar)
	}
	if st.Name != "" {
		r.drawName(dc, st.Name)
	}
	if st.RoleUnit != "" {
		r.drawWard(dc, st.RoleUnit)
	}
	if st.Message != "" {
		r.drawMessage(dc, st.Message)
	}
	if l.Watermark.Text != "" {
		r.drawWatermark(dc)
	}
	if l.QR.Text != "" {
		r.drawQR(dc)
	}
	return dc.Image().(*image.RGBA)
}

func (r *Renderer) drawAvatar(dc *gg.Context, avatar image.Image) {
	a := r.layout.Avatar
	x, y, size := float64(a.X), float64(a.Y), float64(a.Size)

	if glow := r.glowLayer(); glow != nil {
		pad := int(math.Ceil(a.GlowBlur + a.LineWidth))
		dc.DrawImage(glow, a.X-pad, a.Y-pad)
	}

	dc.DrawRoundedRectangle(x, y, size, size, a.Radius)
	dc.SetHexColor(a.Stroke)
	dc.SetLineWidth(a.LineWidth)
	dc.Stroke()

	dc.Push()
	dc.DrawRoundedRectangle(x, y, size, size, a.Radius)
	dc.Clip()
	dc.DrawImage(imaging.Fill(avatar, a.Size, a.Size, imaging.Center, imaging.Lanczos), a.X, a.Y)
	dc.ResetClip()
	dc.Pop()
}

// glowLayer renders the blurred border at reduced resolution and scales it
// back up; blurring at full size would dominate render time.
func (r *Renderer) glowLayer() image.Image {
	a := r.layout.Avatar
	if a.Glow == "" || a.GlowBlur <= 0 {
		return nil
	}
	pad := math.Ceil(a.GlowBlur + a.LineWidth)
	full := int(float64(a.Size) + 2*pad)
	small := int(math.Ceil(float64(full) / glowScale))

	gc := gg.NewContext(small, small)
	gc.Scale(1.0/glowScale, 1.0/glowScale)
	gc.DrawRoundedRectangle(pad, pad, float64(a.Size), float64(a.Size), a.Radius)
	gc.SetHexColor(a.Glow)
	gc.SetLineWidth(a.LineWidth)
	gc.Stroke()

	blurred := imaging.Blur(gc.Image(), a.GlowBlur/2/glowScale)
	return imaging.Resize(blurred, full, full, imaging.Linear)
}

func (r *Renderer) drawName(dc *gg.Context, name string) {
	n := r.layout.Name
	text := strings.ToUpper(name)

	size := typeset.FitSize(n.MaxWidth, n.MaxFontSize, n.MinFontSize, n.FontStep, func(s float64) float64 {
		if !r.setFace(dc, FontName, s) {
			return math.Inf(1)
		}
		w, _ := dc.MeasureString(text)
		return w
	})
	if !r.setFace(dc, FontName, size) {
		return
	}

	lineWidth := math.Max(n.MinStroke, math.Round(size*n.StrokeRatio))
	dc.SetHexColor(n.Stroke)
	for _, off := range outlineOffsets(lineWidth / 2) {
		dc.DrawStringAnchored(text, n.X+off.X, n.Y+off.Y, 0.5, 0)
	}
	dc.SetHexColor(n.Fill)
	dc.DrawStringAnchored(text, n.X, n.Y, 0.5, 0)
}

func (r *Renderer) drawWard(dc *gg.Context, roleUnit string) {
	w := r.layout.Ward
	if !r.setFace(dc, FontWard, w.FontSize) {
		return
	}
	dc.SetHexColor(w.Color)
	for _, line := range typeset.CenterBlock(dc, roleUnit, w.X, w.Y, w.Width, w.LineHeight) {
		for _, word := range line.Words {
			dc.DrawStringAnchored(word.Text, word.X, line.Y, 0.5, 0)
		}
	}
}

func (r *Renderer) drawMessage(dc *gg.Context, message string) {
	m := r.layout.Message
	if !r.setFace(dc, FontMessage, m.FontSize) {
		return
	}
	dc.SetHexColor(m.Color)
	for _, line := range typeset.Justify(dc, message, m.X, m.Y, m.Width, m.LineHeight, m.ParagraphGap) {
		for _, word := range line.Words {
			dc.DrawString(word.Text, word.X, line.Y)
		}
	}
}

func (r *Renderer) drawWatermark(dc *gg.Context) {
	wm := r.layout.Watermark
	if !r.setFace(dc, FontWatermark, wm.FontSize) {
		return
	}
	dc.SetHexColor(wm.Color)
	dc.DrawStringAnchored(wm.Text, wm.X, wm.Y, 1, 0)
}

func (r *Renderer) drawQR(dc *gg.Context) {
	q := r.layout.QR
	img, err := GenerateQRImage(q.Text, q.Size)
	if err != nil {
		r.logger.Warn().Err(err).Msg("skipping QR badge")
		return
	}
	dc.DrawImage(img, q.X, q.Y)
}

func (r *Renderer) setFace(dc *gg.Context, role FontRole, size float64) bool {
	face, err := r.fonts.Face(role, size)
	if err != nil {
		r.logger.Error().Err(err).Int("role", int(role)).Msg("font face unavailable")
		return false
	}
	dc.SetFontFace(face)
	return true
}

// outlineOffsets returns stamp positions on two rings of radius up to r,
// used to paint a text outline of width 2r beneath the fill.
func outlineOffsets(r float64) []gg.Point {
	if r <= 0 {
		return nil
	}
	const steps = 24
	pts := make([]gg.Point, 0, 2*steps)
	for _, radius := range []float64{r, r / 2} {
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / steps
			pts = append(pts, gg.Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
		}
	}
	return pts
}
