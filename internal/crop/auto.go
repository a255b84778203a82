package crop

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// CenterSquare is the largest square centred in an image of the given bounds.
func CenterSquare(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	side := min(w, h)
	x := bounds.Min.X + (w-side)/2
	y := bounds.Min.Y + (h-side)/2
	return image.Rect(x, y, x+side, y+side)
}

// AutoCropCenter takes the largest centred square of src and resamples it to
// outputSize x outputSize. Used where no interactive crop is offered.
func AutoCropCenter(src image.Image, outputSize int) *image.NRGBA {
	sq := CenterSquare(src.Bounds())
	origin := src.Bounds().Min
	return cropSquare(src,
		float64(sq.Min.X-origin.X), float64(sq.Min.Y-origin.Y), float64(sq.Dx()), outputSize)
}

// cropSquare copies the square (x, y, size), given in source pixels relative to
// the image origin, into a white out x out canvas. Parts of the square lying
// outside the source are left white.
func cropSquare(src image.Image, x, y, size float64, out int) *image.NRGBA {
	dst := imaging.New(out, out, color.White)
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return dst
	}
	b := src.Bounds()
	x0 := math.Max(x, 0)
	y0 := math.Max(y, 0)
	x1 := math.Min(x+size, float64(b.Dx()))
	y1 := math.Min(y+size, float64(b.Dy()))
	if x1 <= x0 || y1 <= y0 {
		return dst
	}

	k := float64(out) / size
	dx0 := int(math.Round((x0 - x) * k))
	dy0 := int(math.Round((y0 - y) * k))
	dx1 := min(out, int(math.Round((x1-x)*k)))
	dy1 := min(out, int(math.Round((y1-y)*k)))
	if dx1 <= dx0 || dy1 <= dy0 {
		return dst
	}

	region := image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	).Add(b.Min)
	part := imaging.Resize(imaging.Crop(src, region), dx1-dx0, dy1-dy0, imaging.Lanczos)
	return imaging.Overlay(dst, part, image.Pt(dx0, dy0), 1.0)
}
