package utils

import (
	"strconv"
	"strings"
)

// Kobo stores the highlight color as a small integer in Bookmark.Color.
var koboColorNames = []string{
	0: "yellow",
	1: "pink",
	2: "blue",
	3: "green",
}

// KoboColorName maps the device's color index to a name.
// Empty or unknown values return "".
func KoboColorName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		// Some firmware versions store the value as a REAL
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return ""
		}
		idx = int(f)
	}
	if idx < 0 || idx >= len(koboColorNames) {
		return ""
	}
	return koboColorNames[idx]
}
