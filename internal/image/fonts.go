package imagepkg

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
)

// FontRole identifies which text block a face is used for.
type FontRole int

const (
	FontName FontRole = iota
	FontWard
	FontMessage
	FontWatermark
)

type faceKey struct {
	role FontRole
	size float64
}

// Fonts holds one parsed font per role and caches faces by size.
// Sizes are in canvas pixels (72 DPI, so 1pt == 1px).
type Fonts struct {
	parsed map[FontRole]*opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// LoadFonts parses the fonts named in the layout. A missing or unreadable
// file falls back to the embedded Go font matching the role's style.
func LoadFonts(l config.Layout) (*Fonts, error) {
	sources := map[FontRole]struct {
		path     string
		fallback []byte
	}{
		FontName:      {l.Name.Font, gobold.TTF},
		FontWard:      {l.Ward.Font, gobold.TTF},
		FontMessage:   {l.Message.Font, gobolditalic.TTF},
		FontWatermark: {l.Watermark.Font, goitalic.TTF},
	}

	f := &Fonts{parsed: make(map[FontRole]*opentype.Font), faces: make(map[faceKey]font.Face)}
	for role, src := range sources {
		data := src.fallback
		if src.path != "" {
			if custom, err := os.ReadFile(src.path); err != nil {
				log.Warn().Err(err).Str("font", src.path).Msg("font unavailable, using default")
			} else {
				data = custom
			}
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %q: %w", src.path, err)
		}
		f.parsed[role] = parsed
	}
	return f, nil
}

// Face returns the face for role at size pixels.
func (f *Fonts) Face(role FontRole, size float64) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faceKey{role: role, size: size}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.parsed[role], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face at %.1fpx: %w", size, err)
	}
	f.faces[key] = face
	return face, nil
}
