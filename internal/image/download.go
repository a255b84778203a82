package imagepkg

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/util"
)

// DownloadImage downloads an image from URL and returns it decoded.
func DownloadImage(ctx context.Context, url string) (image.Image, error) {
	body, err := util.GetBytes(ctx, util.NewClient(10*time.Second), url)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, body)
}

// LoadFrame reads the decorative frame from a file path or http(s) URL and
// scales it to width x height. An empty ref yields a nil frame.
func LoadFrame(ctx context.Context, ref string, width, height int) (image.Image, error) {
	if ref == "" {
		return nil, nil
	}
	var frame image.Image
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		img, err := DownloadImage(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("downloading frame: %w", err)
		}
		frame = img
	} else {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("reading frame: %w", err)
		}
		img, err := Decode(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("decoding frame %s: %w", ref, err)
		}
		frame = img
	}
	return fitFrame(frame, width, height), nil
}

// fitFrame stretches the frame to the canvas size, as the frame is always
// drawn over the full canvas.
func fitFrame(frame image.Image, width, height int) image.Image {
	b := frame.Bounds()
	if b.Dx() == width && b.Dy() == height && b.Min == (image.Point{}) {
		return frame
	}
	return imaging.Resize(frame, width, height, imaging.Lanczos)
}
