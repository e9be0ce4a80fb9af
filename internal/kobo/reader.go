package kobo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

// Columns every supported firmware has. Anything else is optional and read
// as NULL when missing.
var (
	requiredContentColumns  = []string{"ContentID", "ContentType", "Title"}
	requiredBookmarkColumns = []string{"BookmarkID", "VolumeID", "ContentID", "Text"}
)

// ReadResult holds the books read from the device and the rows that were skipped.
type ReadResult struct {
	Books   []entities.Book
	Skipped []entities.ItemFailure
}

// Reader reads books and highlights from a KoboReader.sqlite file.
type Reader struct {
	dbPath string
}

// NewReader creates a reader for the database at dbPath.
func NewReader(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: database not found at %s: %w", ErrDatabase, dbPath, err)
	}
	return &Reader{dbPath: dbPath}, nil
}

// DatabasePath returns the path this reader opens.
func (r *Reader) DatabasePath() string {
	return r.dbPath
}

// schema records which optional columns this database has.
type schema struct {
	content  map[string]bool
	bookmark map[string]bool
}

func (s schema) contentCol(alias, name string) string {
	return optionalColumn(s.content, alias, name)
}

func (s schema) bookmarkCol(alias, name string) string {
	return optionalColumn(s.bookmark, alias, name)
}

func optionalColumn(columns map[string]bool, alias, name string) string {
	if !columns[strings.ToLower(name)] {
		return "NULL"
	}
	if alias == "" {
		return name
	}
	return alias + "." + name
}

// ReadBooks reads every book on the device with its highlights.
//
// Rows that cannot be mapped are reported in ReadResult.Skipped and do not
// stop the read. A missing or unusable database returns ErrDatabase. When ctx
// is cancelled, the books read so far are returned together with ctx.Err().
func (r *Reader) ReadBooks(ctx context.Context) (*ReadResult, error) {
	result := &ReadResult{Books: []entities.Book{}}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	db, err := OpenReadOnly(r.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s, err := loadSchema(ctx, db)
	if err != nil {
		return nil, err
	}

	highlights, err := r.readHighlights(ctx, db, s, result)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return nil, err
	}

	var cancelErr error
	if err := r.readContent(ctx, db, s, highlights, result); err != nil {
		if cancelErr = ctx.Err(); cancelErr == nil {
			return nil, err
		}
	}

	if cancelErr == nil {
		orphanIDs := make([]string, 0, len(highlights))
		for volumeID := range highlights {
			orphanIDs = append(orphanIDs, volumeID)
		}
		sort.Strings(orphanIDs)
		for _, volumeID := range orphanIDs {
			for _, ph := range highlights[volumeID] {
				result.Skipped = append(result.Skipped, entities.ItemFailure{
					Key:   ph.highlight.ID,
					Stage: entities.StageDatabase,
					Err:   fmt.Errorf("%w: %s", ErrOrphanHighlight, volumeID),
				})
			}
		}
	}

	sort.SliceStable(result.Books, func(i, j int) bool {
		a, b := result.Books[i], result.Books[j]
		if a.Title != b.Title {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
		return a.ContentID < b.ContentID
	})

	log.Debug("read kobo database",
		zap.String("path", r.dbPath),
		zap.Int("books", len(result.Books)),
		zap.Int("highlights", entities.CountHighlights(result.Books)),
		zap.Int("skipped", len(result.Skipped)))

	return result, cancelErr
}

func loadSchema(ctx context.Context, db *sql.DB) (schema, error) {
	var s schema
	for _, table := range []string{"content", "Bookmark"} {
		exists, err := tableExists(ctx, db, table)
		if err != nil {
			return s, fmt.Errorf("%w: failed to inspect schema: %w", ErrDatabase, err)
		}
		if !exists {
			return s, fmt.Errorf("%w: table %s not found", ErrDatabase, table)
		}
	}

	var err error
	if s.content, err = tableColumns(ctx, db, "content"); err != nil {
		return s, fmt.Errorf("%w: failed to inspect content columns: %w", ErrDatabase, err)
	}
	if s.bookmark, err = tableColumns(ctx, db, "Bookmark"); err != nil {
		return s, fmt.Errorf("%w: failed to inspect Bookmark columns: %w", ErrDatabase, err)
	}

	for _, col := range requiredContentColumns {
		if !s.content[strings.ToLower(col)] {
			return s, fmt.Errorf("%w: content.%s column not found", ErrDatabase, col)
		}
	}
	for _, col := range requiredBookmarkColumns {
		if !s.bookmark[strings.ToLower(col)] {
			return s, fmt.Errorf("%w: Bookmark.%s column not found", ErrDatabase, col)
		}
	}
	return s, nil
}

func contentQuery(s schema) string {
	columns := []string{
		"ContentID",
		"ContentType",
		"Title",
		s.contentCol("", "Attribution"),
		s.contentCol("", "ISBN"),
		s.contentCol("", "Publisher"),
		s.contentCol("", "Language"),
		s.contentCol("", "DateLastRead"),
		s.contentCol("", "Description"),
	}
	query := "SELECT " + strings.Join(columns, ", ") + " FROM content"
	// Chapters and TOC entries point at their book through BookID
	if s.content["bookid"] {
		query += " WHERE BookID IS NULL OR BookID = ''"
	}
	return query + " ORDER BY ContentID"
}

func bookmarkQuery(s schema) string {
	columns := []string{
		"b.BookmarkID",
		"b.VolumeID",
		"b.ContentID",
		"b.Text",
		s.bookmarkCol("b", "Annotation"),
		s.bookmarkCol("b", "StartContainerPath"),
		s.bookmarkCol("b", "ChapterProgress"),
		s.bookmarkCol("b", "DateCreated"),
		s.bookmarkCol("b", "Color"),
		"c.Title",
		s.contentCol("c", "VolumeIndex"),
		// TOC entries are keyed by the chapter's ContentID plus a suffix
		"(SELECT t.Title FROM content t WHERE t.ContentType = " + strconv.Itoa(ContentTypeTOC) +
			" AND b.ContentID != '' AND substr(t.ContentID, 1, length(b.ContentID)) = b.ContentID" +
			" ORDER BY length(t.ContentID), t.ContentID LIMIT 1)",
	}
	return "SELECT " + strings.Join(columns, ", ") +
		" FROM Bookmark b LEFT JOIN content c ON c.ContentID = b.ContentID" +
		" WHERE b.Text IS NOT NULL AND trim(b.Text) != ''"
}

// readHighlights loads every highlight grouped by VolumeID, sorted by
// reading position.
func (r *Reader) readHighlights(ctx context.Context, db *sql.DB, s schema, result *ReadResult) (map[string][]positionedHighlight, error) {
	rows, err := db.QueryContext(ctx, bookmarkQuery(s))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query highlights: %w", ErrDatabase, err)
	}
	defer rows.Close()

	byVolume := make(map[string][]positionedHighlight)
	rowNum := 0
	for rows.Next() {
		rowNum++
		var row bookmarkRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			r.skip(result, "Bookmark", fmt.Sprintf("#%d", rowNum), err)
			continue
		}
		ph, err := row.toHighlight()
		if err != nil {
			key := row.BookmarkID.String
			if key == "" {
				key = fmt.Sprintf("#%d", rowNum)
			}
			r.skip(result, "Bookmark", key, err)
			continue
		}
		byVolume[ph.volumeID] = append(byVolume[ph.volumeID], ph)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read highlights: %w", ErrDatabase, err)
	}

	for _, list := range byVolume {
		sort.SliceStable(list, func(i, j int) bool {
			return lessPosition(list[i], list[j])
		})
	}
	return byVolume, nil
}

// readContent maps book rows and attaches their highlights. Attached
// highlights are removed from byVolume so that what remains are orphans.
// Cancellation is checked before each row, so every appended book is complete.
func (r *Reader) readContent(ctx context.Context, db *sql.DB, s schema, byVolume map[string][]positionedHighlight, result *ReadResult) error {
	rows, err := db.QueryContext(ctx, contentQuery(s))
	if err != nil {
		return fmt.Errorf("%w: failed to query content: %w", ErrDatabase, err)
	}
	defer rows.Close()

	rowNum := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rowNum++

		var row contentRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			r.skip(result, "content", fmt.Sprintf("#%d", rowNum), err)
			continue
		}

		kind, err := classifyContentRow(row)
		switch kind {
		case rowMalformed:
			key := row.ContentID.String
			if key == "" {
				key = fmt.Sprintf("#%d", rowNum)
			}
			r.skip(result, "content", key, err)
		case rowOther:
			continue
		case rowBook:
			book := row.toBook()
			for _, ph := range byVolume[book.ContentID] {
				book.Highlights = append(book.Highlights, ph.highlight)
			}
			delete(byVolume, book.ContentID)
			result.Books = append(result.Books, book)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: failed to read content: %w", ErrDatabase, err)
	}
	return nil
}

func (r *Reader) skip(result *ReadResult, table, key string, err error) {
	rowErr := &RowError{Table: table, Key: key, Err: err}
	log.Warn("skipping malformed row", zap.String("table", table), zap.String("key", key), zap.Error(err))
	result.Skipped = append(result.Skipped, entities.ItemFailure{
		Key:   key,
		Stage: entities.StageDatabase,
		Err:   rowErr,
	})
}
