package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports input that the decoder cannot read as an image.
var ErrDecode = errors.New("not a readable image")

type decodeResult struct {
	img image.Image
	err error
}

// Decode turns raw file bytes into a bitmap, applying EXIF orientation.
// The caller only ever gets a fully decoded image or an error wrapping ErrDecode.
func Decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	resultChan := make(chan decodeResult, 1)
	go func() {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		resultChan <- decodeResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, res.err)
		}
		return res.img, nil
	}
}

// Encode serializes img as "png" or "jpeg" (quality 1-100) and returns the bytes
// together with their MIME type.
func Encode(ctx context.Context, img image.Image, format string, quality int) ([]byte, string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "jpeg", "jpg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), MIMEType(format), nil
}

// MIMEType maps an output format to its content type.
func MIMEType(format string) string {
	if format == "jpeg" || format == "jpg" {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext maps an output format to a file extension without the dot.
func Ext(format string) string {
	if format == "jpeg" || format == "jpg" {
		return "jpg"
	}
	return "png"
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
