package crop

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/muesli/smartcrop"
)

// DragMode is the kind of interaction started by BeginDrag.
type DragMode int

const (
	DragNone DragMode = iota
	DragMove
	DragResize
)

func (m DragMode) String() string {
	switch m {
	case DragMove:
		return "move"
	case DragResize:
		return "resize"
	default:
		return "none"
	}
}

// Options tunes the selector.
type Options struct {
	MinSize         float64
	HandleTolerance float64
	// DefaultFraction of the shorter display side is used for the initial box,
	// capped at MaxDefaultSize when that is positive.
	DefaultFraction float64
	MaxDefaultSize  float64
	OutputSize      int
}

type dragState struct {
	mode     DragMode
	start    Point
	boxStart Box
}

// Selector tracks a square selection over a displayed source image.
// It is not safe for concurrent use.
type Selector struct {
	src  image.Image
	w, h float64
	opts Options
	box  Box
	drag dragState
}

// NewSelector starts a crop session for an already decoded image shown in a
// displayW x displayH area, with the box centred.
func NewSelector(src image.Image, displayW, displayH float64, opts Options) (*Selector, error) {
	if src == nil {
		return nil, fmt.Errorf("crop: nil source image")
	}
	if displayW <= 0 || displayH <= 0 {
		return nil, fmt.Errorf("crop: invalid display size %.0fx%.0f", displayW, displayH)
	}
	if opts.OutputSize <= 0 {
		return nil, fmt.Errorf("crop: invalid output size %d", opts.OutputSize)
	}
	s := &Selector{src: src, w: displayW, h: displayH, opts: opts}

	size := math.Floor(math.Min(displayW, displayH) * opts.DefaultFraction)
	if opts.MaxDefaultSize > 0 && size > opts.MaxDefaultSize {
		size = opts.MaxDefaultSize
	}
	s.box = s.clamp(Box{
		X:    math.Floor((displayW - size) / 2),
		Y:    math.Floor((displayH - size) / 2),
		Size: size,
	})
	return s, nil
}

// Box returns the current selection.
func (s *Selector) Box() Box { return s.box }

// Display returns the display area size.
func (s *Selector) Display() (w, h float64) { return s.w, s.h }

// Source returns the image being cropped.
func (s *Selector) Source() image.Image { return s.src }

// Mode returns the active drag mode.
func (s *Selector) Mode() DragMode { return s.drag.mode }

// Mapping is recomputed from the live display size on every call.
func (s *Selector) Mapping() Mapping {
	b := s.src.Bounds()
	return ContainFit(s.w, s.h, b.Dx(), b.Dy())
}

// Resize updates the display area after a layout change and keeps the box inside it.
func (s *Selector) Resize(displayW, displayH float64) {
	if displayW <= 0 || displayH <= 0 {
		return
	}
	s.w, s.h = displayW, displayH
	s.box = s.clamp(s.box)
	s.drag = dragState{}
}

// BeginDrag classifies the pointer: near the bottom-right corner resizes,
// strictly inside moves, anything else starts nothing.
func (s *Selector) BeginDrag(p Point) DragMode {
	b := s.box
	tol := s.opts.HandleTolerance
	nearCorner := math.Abs(p.X-(b.X+b.Size)) < tol && math.Abs(p.Y-(b.Y+b.Size)) < tol
	inside := p.X > b.X && p.X < b.X+b.Size && p.Y > b.Y && p.Y < b.Y+b.Size

	switch {
	case nearCorner:
		s.drag = dragState{mode: DragResize, start: p, boxStart: b}
	case inside:
		s.drag = dragState{mode: DragMove, start: p, boxStart: b}
	default:
		s.drag = dragState{}
	}
	return s.drag.mode
}

// UpdateDrag applies the pointer delta since BeginDrag.
func (s *Selector) UpdateDrag(p Point) Box {
	start := s.drag.boxStart
	dx := p.X - s.drag.start.X
	dy := p.Y - s.drag.start.Y

	switch s.drag.mode {
	case DragMove:
		s.box = Box{
			X:    clampFloat(start.X+dx, 0, s.w-start.Size),
			Y:    clampFloat(start.Y+dy, 0, s.h-start.Size),
			Size: start.Size,
		}
	case DragResize:
		minSize := s.minSize()
		size := math.Max(minSize, math.Floor(start.Size+dx))
		maxSize := math.Min(s.w-start.X, s.h-start.Y)
		s.box = Box{X: start.X, Y: start.Y, Size: math.Max(minSize, math.Min(size, maxSize))}
	}
	return s.box
}

// EndDrag finishes the interaction without touching the box.
func (s *Selector) EndDrag() {
	s.drag = dragState{}
}

// Confirm maps the selection into source pixels and resamples it to an
// OutputSize square. Areas outside the source stay white.
func (s *Selector) Confirm() *image.NRGBA {
	x, y, size := s.Mapping().ToSource(s.box)
	return cropSquare(s.src, x, y, size, s.opts.OutputSize)
}

// Suggest moves the box onto the most interesting square of the source
// image as scored by smartcrop.
func (s *Selector) Suggest() (Box, error) {
	analyzer := smartcrop.NewAnalyzer(resizer{resampler: imaging.Box})
	best, err := analyzer.FindBestCrop(s.src, 1, 1)
	if err != nil {
		return s.box, fmt.Errorf("finding best crop: %w", err)
	}
	origin := s.src.Bounds().Min
	side := math.Min(float64(best.Dx()), float64(best.Dy()))
	s.box = s.clamp(s.Mapping().ToDisplay(float64(best.Min.X-origin.X), float64(best.Min.Y-origin.Y), side))
	s.drag = dragState{}
	return s.box, nil
}

// View renders what the crop modal shows: the contain-fitted image on black,
// dimmed outside the selection, with a blue outline around it.
func (s *Selector) View() image.Image {
	w, h := int(math.Ceil(s.w)), int(math.Ceil(s.h))
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	m := s.Mapping()
	b := s.src.Bounds()
	drawW := int(math.Round(float64(b.Dx()) * m.Scale))
	drawH := int(math.Round(float64(b.Dy()) * m.Scale))
	if drawW > 0 && drawH > 0 {
		fitted := imaging.Resize(s.src, drawW, drawH, imaging.Linear)
		dc.DrawImage(fitted, int(math.Round(m.OffsetX)), int(math.Round(m.OffsetY)))
	}

	box := s.box
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.SetFillRuleEvenOdd()
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.DrawRectangle(box.X, box.Y, box.Size, box.Size)
	dc.Fill()

	dc.SetHexColor("#3b82f6")
	dc.SetLineWidth(3)
	dc.DrawRectangle(box.X+1.5, box.Y+1.5, box.Size-3, box.Size-3)
	dc.Stroke()
	return dc.Image()
}

func (s *Selector) minSize() float64 {
	return math.Min(s.opts.MinSize, math.Min(s.w, s.h))
}

// clamp keeps the box square, at least minSize and inside the display.
func (s *Selector) clamp(b Box) Box {
	b.Size = math.Max(s.minSize(), math.Min(b.Size, math.Min(s.w, s.h)))
	b.X = clampFloat(b.X, 0, s.w-b.Size)
	b.Y = clampFloat(b.Y, 0, s.h-b.Size)
	return b
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// resizer implements the smartcrop Resizer interface.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}
