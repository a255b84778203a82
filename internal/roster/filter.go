package roster

import (
	"strings"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/util"
)

func fold(s string) string {
	return strings.ToLower(util.StripDiacritics(s))
}

// Filter keeps entries whose name or role/unit contains every keyword,
// ignoring case and diacritics. Empty keywords keep everything.
func Filter(entries []Entry, keywords string) []Entry {
	kw := strings.Fields(fold(keywords))
	if len(kw) == 0 {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		hay := fold(e.Name + " " + e.RoleUnit)
		ok := true
		for _, k := range kw {
			if !strings.Contains(hay, k) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out
}
