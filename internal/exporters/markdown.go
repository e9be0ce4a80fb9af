package exporters

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/utils"
)

// Layouts the device uses for DateCreated and DateLastRead, most specific first.
var koboDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a Kobo timestamp in the given format. It returns "" when
// the value is empty or not a date.
func FormatDate(raw string, format entities.DateFormat) string {
	t, ok := parseKoboDate(raw)
	if !ok {
		return ""
	}
	switch format {
	case entities.DateFormatDDMMYYYY:
		return t.Format("02/01/2006")
	case entities.DateFormatISO8601:
		return t.Format("2006-01-02")
	default:
		return t.Format("02 January 2006")
	}
}

func parseKoboDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range koboDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	// Fall back to the leading date of anything else
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Render produces the Markdown document of a book. The output depends only on
// its arguments.
func Render(book entities.Book, cfg entities.ExportConfig) string {
	blocks := []string{"# " + singleLine(book.Title)}

	if meta := metadataLines(book, cfg); len(meta) > 0 {
		blocks = append(blocks, strings.Join(meta, "\n"))
	}

	if len(book.Highlights) > 0 {
		blocks = append(blocks, "---")

		groups := groupByChapter(book.Highlights)
		withHeadings := len(groups) > 1
		remaining := len(book.Highlights)
		for _, g := range groups {
			if withHeadings && g.title != "" {
				blocks = append(blocks, "## "+singleLine(g.title))
			}
			for _, h := range g.highlights {
				blocks = append(blocks, highlightBlocks(h, cfg)...)
				remaining--
				if remaining > 0 {
					blocks = append(blocks, "---")
				}
			}
		}
	}

	return strings.Join(blocks, "\n\n") + "\n"
}

func metadataLines(book entities.Book, cfg entities.ExportConfig) []string {
	var lines []string
	add := func(enabled bool, label, value string) {
		value = singleLine(value)
		if enabled && value != "" {
			lines = append(lines, fmt.Sprintf("**%s:** %s", label, value))
		}
	}

	m := cfg.Metadata
	add(m.Author, "Author", book.Author)
	add(m.ISBN, "ISBN", book.ISBN)
	add(m.Publisher, "Publisher", book.Publisher)
	add(m.Language, "Language", book.Language)
	add(m.DateLastRead, "Last Read", FormatDate(book.DateLastRead, cfg.DateFormat))
	add(m.Description, "Description", book.Description)
	return lines
}

type chapterGroup struct {
	title      string
	highlights []entities.Highlight
}

// groupByChapter groups highlights by chapter title in order of first
// appearance. Highlights without a chapter share one group.
func groupByChapter(highlights []entities.Highlight) []chapterGroup {
	var groups []chapterGroup
	index := make(map[string]int)
	for _, h := range highlights {
		title := strings.TrimSpace(h.ChapterTitle)
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, chapterGroup{title: title})
		}
		groups[i].highlights = append(groups[i].highlights, h)
	}
	return groups
}

func highlightBlocks(h entities.Highlight, cfg entities.ExportConfig) []string {
	blocks := []string{blockquote(h.Text)}

	if note := strings.TrimSpace(h.Annotation); note != "" {
		blocks = append(blocks, "**Note:** "+strings.ReplaceAll(note, "\n", "  \n"))
	}
	if loc := location(h); loc != "" {
		blocks = append(blocks, loc)
	}
	if date := FormatDate(h.DateCreated, cfg.DateFormat); date != "" {
		blocks = append(blocks, date)
	}
	return blocks
}

func blockquote(text string) string {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

// location is "Chapter · 42%", with either part left out when unknown.
func location(h entities.Highlight) string {
	var parts []string
	if title := singleLine(h.ChapterTitle); title != "" {
		parts = append(parts, title)
	}
	if h.ChapterProgress != nil {
		p := math.Max(0, math.Min(1, *h.ChapterProgress))
		// Truncate, but 0.29*100 must not become 28
		parts = append(parts, fmt.Sprintf("%d%%", int(math.Floor(p*100+1e-9))))
	}
	return strings.Join(parts, " · ")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PreviewResult is what an export of a single book would produce.
type PreviewResult struct {
	Filename       string `json:"filename"`
	Content        string `json:"content"`
	HighlightCount int    `json:"highlight_count"`
}

// Preview renders a book without writing anything.
func Preview(book entities.Book, cfg entities.ExportConfig) PreviewResult {
	return PreviewResult{
		Filename:       utils.GenerateFilename(book.Title, book.Author),
		Content:        Render(book, cfg),
		HighlightCount: len(book.Highlights),
	}
}
