package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/util"
)

// headerAliases maps normalized header cells to entry fields.
var headerAliases = map[string]string{
	"name":             "name",
	"ho_ten":           "name",
	"ho_va_ten":        "name",
	"role_unit":        "role_unit",
	"role":             "role_unit",
	"chuc_vu":          "role_unit",
	"chuc_vu_-_don_vi": "role_unit",
	"don_vi":           "role_unit",
	"message":          "message",
	"loi_nhan":         "message",
	"photo":            "photo",
	"anh":              "photo",
}

func normalizeHeader(h string) string {
	return strings.ToLower(util.Slug(h))
}

// Load reads a roster CSV. Rows without a name are skipped; photo paths are
// made relative to the file's directory.
func Load(path string) ([]Entry, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	entries, err := Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range entries {
		if p := entries[i].Photo; p != "" && !filepath.IsAbs(p) && !isURL(p) {
			entries[i].Photo = filepath.Join(dir, p)
		}
	}
	return entries, nil
}

// Parse reads roster rows from r. The header row names the columns.
func Parse(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("roster has no header")
	}
	if err != nil {
		return nil, err
	}
	cols := map[string]int{}
	for i, h := range header {
		if field, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("roster header has no name column")
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Entry{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		e := Entry{
			Line:     line,
			Name:     get(row, "name"),
			RoleUnit: get(row, "role_unit"),
			Message:  get(row, "message"),
			Photo:    get(row, "photo"),
		}
		if e.Name == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
