package crop

import "math"

// Box is a square selection in display (overlay) coordinates.
type Box struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Point is a pointer position in display coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mapping describes how a source image is letterboxed into the display area.
type Mapping struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Scale   float64 `json:"scale"`
}

// ContainFit scales a srcW x srcH image as large as possible inside the
// display while keeping its aspect ratio, centred on both axes.
func ContainFit(displayW, displayH float64, srcW, srcH int) Mapping {
	if srcW <= 0 || srcH <= 0 {
		return Mapping{Scale: 1}
	}
	scale := math.Min(displayW/float64(srcW), displayH/float64(srcH))
	drawW := float64(srcW) * scale
	drawH := float64(srcH) * scale
	return Mapping{
		OffsetX: (displayW - drawW) / 2,
		OffsetY: (displayH - drawH) / 2,
		Scale:   scale,
	}
}

// ToSource converts a display box into source pixel coordinates.
func (m Mapping) ToSource(b Box) (x, y, size float64) {
	return (b.X - m.OffsetX) / m.Scale, (b.Y - m.OffsetY) / m.Scale, b.Size / m.Scale
}

// ToDisplay converts a source square back into display coordinates.
func (m Mapping) ToDisplay(x, y, size float64) Box {
	return Box{X: x*m.Scale + m.OffsetX, Y: y*m.Scale + m.OffsetY, Size: size * m.Scale}
}
