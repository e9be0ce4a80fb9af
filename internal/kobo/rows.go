package kobo

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/utils"
)

// Values of content.ContentType
const (
	ContentTypeBook    = 6
	ContentTypeChapter = 9
	ContentTypeTOC     = 899
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"

	onboardPrefix = "/mnt/onboard/"
)

type rowKind int

const (
	rowBook rowKind = iota
	rowOther
	rowMalformed
)

func (k rowKind) String() string {
	switch k {
	case rowBook:
		return "book"
	case rowOther:
		return "other"
	default:
		return "malformed"
	}
}

// contentRow is one scanned row of the content table. Every column is read
// as text so that bad values surface in classifyContentRow rather than as
// driver conversion errors.
type contentRow struct {
	ContentID    sql.NullString
	ContentType  sql.NullString
	Title        sql.NullString
	Attribution  sql.NullString
	ISBN         sql.NullString
	Publisher    sql.NullString
	Language     sql.NullString
	DateLastRead sql.NullString
	Description  sql.NullString
}

func (r *contentRow) scanTargets() []any {
	return []any{
		&r.ContentID, &r.ContentType, &r.Title, &r.Attribution, &r.ISBN,
		&r.Publisher, &r.Language, &r.DateLastRead, &r.Description,
	}
}

// classifyContentRow decides whether a content row is a book, some other
// asset, or unusable.
func classifyContentRow(row contentRow) (rowKind, error) {
	if strings.TrimSpace(row.ContentID.String) == "" {
		return rowMalformed, errors.New("missing ContentID")
	}
	if !row.ContentType.Valid {
		return rowMalformed, errors.New("missing ContentType")
	}
	contentType, err := parseInt(row.ContentType.String)
	if err != nil {
		return rowMalformed, fmt.Errorf("invalid ContentType %q", row.ContentType.String)
	}
	if contentType == ContentTypeBook {
		return rowBook, nil
	}
	return rowOther, nil
}

// toBook maps a row already classified as rowBook.
func (r contentRow) toBook() entities.Book {
	title := strings.TrimSpace(r.Title.String)
	if title == "" {
		title = unknownTitle
	}
	author := strings.TrimSpace(r.Attribution.String)
	if author == "" {
		author = unknownAuthor
	}
	return entities.Book{
		ContentID:    r.ContentID.String,
		Title:        title,
		Author:       author,
		ISBN:         strings.TrimSpace(r.ISBN.String),
		Publisher:    strings.TrimSpace(r.Publisher.String),
		Language:     strings.TrimSpace(r.Language.String),
		DateLastRead: strings.TrimSpace(r.DateLastRead.String),
		Description:  strings.TrimSpace(r.Description.String),
		FilePath:     FilePathFromContentID(r.ContentID.String),
		Highlights:   []entities.Highlight{},
	}
}

// bookmarkRow is one scanned row of the Bookmark query, joined with its
// chapter and TOC titles.
type bookmarkRow struct {
	BookmarkID         sql.NullString
	VolumeID           sql.NullString
	ContentID          sql.NullString
	Text               sql.NullString
	Annotation         sql.NullString
	StartContainerPath sql.NullString
	ChapterProgress    sql.NullString
	DateCreated        sql.NullString
	Color              sql.NullString
	ChapterTitle       sql.NullString
	VolumeIndex        sql.NullString
	TOCTitle           sql.NullString
}

func (r *bookmarkRow) scanTargets() []any {
	return []any{
		&r.BookmarkID, &r.VolumeID, &r.ContentID, &r.Text, &r.Annotation,
		&r.StartContainerPath, &r.ChapterProgress, &r.DateCreated, &r.Color,
		&r.ChapterTitle, &r.VolumeIndex, &r.TOCTitle,
	}
}

// positionedHighlight carries the sort key next to the mapped highlight.
type positionedHighlight struct {
	volumeID    string
	chapterID   string
	volumeIndex int // -1 when unknown
	progress    float64
	highlight   entities.Highlight
}

func (r bookmarkRow) toHighlight() (positionedHighlight, error) {
	id := strings.TrimSpace(r.BookmarkID.String)
	if id == "" {
		return positionedHighlight{}, errors.New("missing BookmarkID")
	}
	volumeID := strings.TrimSpace(r.VolumeID.String)
	if volumeID == "" {
		return positionedHighlight{}, errors.New("missing VolumeID")
	}

	var progress *float64
	if raw := strings.TrimSpace(r.ChapterProgress.String); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return positionedHighlight{}, fmt.Errorf("invalid ChapterProgress %q", raw)
		}
		progress = &p
	}

	volumeIndex := -1
	if idx, err := parseInt(r.VolumeIndex.String); err == nil && idx >= 0 {
		volumeIndex = idx
	}

	ph := positionedHighlight{
		volumeID:    volumeID,
		chapterID:   r.ContentID.String,
		volumeIndex: volumeIndex,
		highlight: entities.Highlight{
			ID:              id,
			Text:            strings.TrimSpace(r.Text.String),
			Annotation:      strings.TrimSpace(r.Annotation.String),
			ChapterTitle:    resolveChapterTitle(r.TOCTitle.String, r.ChapterTitle.String),
			ChapterProgress: progress,
			ContainerPath:   r.StartContainerPath.String,
			DateCreated:     strings.TrimSpace(r.DateCreated.String),
			Color:           utils.KoboColorName(r.Color.String),
		},
	}
	if progress != nil {
		ph.progress = *progress
	} else {
		ph.progress = -1
	}
	return ph, nil
}

// resolveChapterTitle prefers the table-of-contents title. The chapter row's
// own title is often just the file name inside the EPUB, which is useless as
// a heading.
func resolveChapterTitle(tocTitle, chapterTitle string) string {
	if t := strings.TrimSpace(tocTitle); t != "" {
		return t
	}
	t := strings.TrimSpace(chapterTitle)
	if t == "" || looksLikeFileName(t) {
		return ""
	}
	return t
}

func looksLikeFileName(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, ".xhtml") ||
		strings.Contains(lower, ".html") ||
		strings.Contains(lower, ".htm") ||
		strings.Contains(lower, "/")
}

// lessPosition orders highlights by where they appear in the book.
func lessPosition(a, b positionedHighlight) bool {
	if a.volumeIndex != b.volumeIndex {
		return a.volumeIndex < b.volumeIndex
	}
	if a.chapterID != b.chapterID {
		return a.chapterID < b.chapterID
	}
	if a.progress != b.progress {
		return a.progress < b.progress
	}
	if a.highlight.DateCreated != b.highlight.DateCreated {
		return a.highlight.DateCreated < b.highlight.DateCreated
	}
	return a.highlight.ID < b.highlight.ID
}

// FilePathFromContentID strips the URI scheme and onboard mount prefix from a
// book's ContentID, giving a path relative to the device root. Content that
// does not live on the onboard storage (store kepubs, SD card) has no path.
func FilePathFromContentID(contentID string) string {
	p := strings.TrimSpace(contentID)
	p = strings.TrimPrefix(p, "file://")
	if !strings.HasPrefix(p, onboardPrefix) {
		return ""
	}
	return strings.TrimPrefix(p, onboardPrefix)
}

// KepubPath is where the device keeps store-bought books, relative to the root.
func KepubPath(contentID string) string {
	if contentID == "" || strings.ContainsAny(contentID, `/\:`) {
		return ""
	}
	return entities.KoboDirName + "/kepub/" + contentID
}

// parseInt accepts integers stored as TEXT or REAL ("6", "6.0").
func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int(f), nil
}
