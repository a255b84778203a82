package util

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TimestampLayout is appended to exported file names.
const TimestampLayout = "20060102-150405"

// StripDiacritics removes combining marks, so "Nguyễn" becomes "Nguyen".
// Đ/đ have no decomposition and are mapped to D/d explicitly.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("Đ", "D", "đ", "d").Replace(out)
}

// Slug turns a display name into an ASCII file name fragment: diacritics
// stripped, whitespace runs replaced by '_', anything else outside
// [A-Za-z0-9_-] dropped.
func Slug(s string) string {
	var b strings.Builder
	for _, field := range strings.Fields(StripDiacritics(s)) {
		part := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			}
			return -1
		}, field)
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		b.WriteString(part)
	}
	return b.String()
}

// ExportFilename builds "<Slug>_<timestamp>.<ext>" from the entered name, or
// returns fallback when the name has nothing usable.
func ExportFilename(name, ext string, now time.Time, fallback string) string {
	slug := Slug(name)
	if slug == "" {
		return fallback
	}
	return slug + "_" + now.Format(TimestampLayout) + "." + ext
}
