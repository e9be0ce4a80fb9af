package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameRunes = 200

var (
	// Characters that are invalid in filenames on at least one common filesystem
	invalidFilenameChars = regexp.MustCompile(`[/\\?*|"<>]`)
	// Space runs to collapse
	multipleSpaces = regexp.MustCompile(` {2,}`)
)

// SanitizeFilename turns a raw title or author into a string that is safe to
// use as part of a file name. The result is never empty and applying it twice
// gives the same result as applying it once.
func SanitizeFilename(raw string) string {
	name := strings.TrimSpace(raw)

	name = strings.ReplaceAll(name, ":", " -")
	name = invalidFilenameChars.ReplaceAllString(name, "-")

	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	name = multipleSpaces.ReplaceAllString(name, " ")

	// Decomposed accents (common on macOS volumes) become single code points
	name = norm.NFC.String(name)

	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = string(runes[:maxFilenameRunes])
	}
	name = strings.TrimSpace(name)

	if name == "" {
		return "Untitled"
	}
	return name
}

// GenerateFilename returns the Markdown file name for a book.
func GenerateFilename(title, author string) string {
	return SanitizeFilename(title) + " - " + SanitizeFilename(author) + ".md"
}
