// Package kobotest builds Kobo device trees and content databases for tests
// and demos. The schema is the subset of the real KoboReader.sqlite tables
// that the reader queries.
package kobotest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

const contentSchema = `CREATE TABLE content (
	ContentID TEXT NOT NULL,
	ContentType INTEGER,
	MimeType TEXT,
	BookID TEXT,
	BookTitle TEXT,
	Title TEXT,
	Attribution TEXT,
	ISBN TEXT,
	Publisher TEXT,
	Language TEXT,
	DateLastRead TEXT,
	Description TEXT,
	VolumeIndex INTEGER,
	PRIMARY KEY (ContentID)
)`

const bookmarkSchema = `CREATE TABLE Bookmark (
	BookmarkID TEXT NOT NULL,
	VolumeID TEXT NOT NULL,
	ContentID TEXT NOT NULL,
	StartContainerPath TEXT,
	ChapterProgress REAL,
	DateCreated TEXT,
	Text TEXT,
	Annotation TEXT,
	Color INTEGER,
	Type TEXT,
	PRIMARY KEY (BookmarkID)
)`

// BookRow is a ContentType 6 row.
type BookRow struct {
	ContentID    string
	Title        string
	Author       string
	ISBN         string
	Publisher    string
	Language     string
	DateLastRead string
	Description  string
}

// ChapterRow is a ContentType 9 row and, when TOCTitle is set, its
// ContentType 899 table-of-contents entry.
type ChapterRow struct {
	ContentID   string
	BookID      string
	Title       string
	VolumeIndex int
	TOCTitle    string
}

// BookmarkRow is a Bookmark row. ChapterProgress and Color are passed to the
// driver as-is so tests can store values of the wrong type.
type BookmarkRow struct {
	BookmarkID      string
	VolumeID        string
	ContentID       string
	Text            string
	Annotation      string
	ContainerPath   string
	ChapterProgress any
	DateCreated     string
	Color           any
}

// Fixture is a writable Kobo content database.
type Fixture struct {
	DB   *sql.DB
	Path string
}

// Create creates a new database with the content and Bookmark tables.
func Create(path string) (*Fixture, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	for _, stmt := range []string{contentSchema, bookmarkSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &Fixture{DB: db, Path: path}, nil
}

// CreateDevice lays out a device root: .kobo/version and an empty database.
func CreateDevice(root, serial string) (*Fixture, error) {
	koboDir := filepath.Join(root, entities.KoboDirName)
	if err := os.MkdirAll(koboDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", koboDir, err)
	}
	if serial != "" {
		version := serial + ",4.1.15,4.38.21908,4.1.15,4.1.15,00000000-0000-0000-0000-000000000390"
		if err := os.WriteFile(filepath.Join(koboDir, entities.KoboVersionName), []byte(version+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("failed to write version file: %w", err)
		}
	}
	return Create(filepath.Join(koboDir, entities.KoboDatabaseName))
}

// BookContentID returns the ContentID the device uses for a sideloaded file.
func BookContentID(relPath string) string {
	return "file:///mnt/onboard/" + relPath
}

func (f *Fixture) Close() error {
	return f.DB.Close()
}

// Exec runs an arbitrary statement, for rows the typed helpers cannot express.
func (f *Fixture) Exec(query string, args ...any) error {
	_, err := f.DB.Exec(query, args...)
	return err
}

func (f *Fixture) AddBook(b BookRow) error {
	_, err := f.DB.Exec(`INSERT INTO content
		(ContentID, ContentType, MimeType, BookID, Title, Attribution, ISBN, Publisher, Language, DateLastRead, Description)
		VALUES (?, 6, 'application/epub+zip', NULL, ?, ?, ?, ?, ?, ?, ?)`,
		b.ContentID, b.Title, b.Author, nullable(b.ISBN), nullable(b.Publisher),
		nullable(b.Language), nullable(b.DateLastRead), nullable(b.Description))
	return err
}

func (f *Fixture) AddChapter(c ChapterRow) error {
	_, err := f.DB.Exec(`INSERT INTO content (ContentID, ContentType, BookID, Title, VolumeIndex)
		VALUES (?, 9, ?, ?, ?)`, c.ContentID, c.BookID, c.Title, c.VolumeIndex)
	if err != nil || c.TOCTitle == "" {
		return err
	}
	_, err = f.DB.Exec(`INSERT INTO content (ContentID, ContentType, BookID, Title, VolumeIndex)
		VALUES (?, 899, ?, ?, ?)`, c.ContentID+"-1", c.BookID, c.TOCTitle, c.VolumeIndex)
	return err
}

func (f *Fixture) AddBookmark(b BookmarkRow) error {
	_, err := f.DB.Exec(`INSERT INTO Bookmark
		(BookmarkID, VolumeID, ContentID, StartContainerPath, ChapterProgress, DateCreated, Text, Annotation, Color, Type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'highlight')`,
		b.BookmarkID, b.VolumeID, b.ContentID, nullable(b.ContainerPath), b.ChapterProgress,
		nullable(b.DateCreated), b.Text, nullable(b.Annotation), b.Color)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Sample content IDs used by SeedSample.
var (
	AtomicHabitsID = BookContentID("Books/Atomic Habits.epub")
	SapiensID      = BookContentID("Books/Sapiens.epub")
)

// SeedSample inserts two books: "Atomic Habits" with three highlights in
// chapters Ch1, Ch1, Ch2, and "Sapiens" without highlights.
func SeedSample(f *Fixture) error {
	books := []BookRow{
		{
			ContentID:    AtomicHabitsID,
			Title:        "Atomic Habits",
			Author:       "James Clear",
			ISBN:         "9780735211292",
			Publisher:    "Avery",
			Language:     "en",
			DateLastRead: "2025-01-24T10:11:12.000",
		},
		{
			ContentID: SapiensID,
			Title:     "Sapiens",
			Author:    "Yuval Noah Harari",
		},
	}
	for _, b := range books {
		if err := f.AddBook(b); err != nil {
			return err
		}
	}

	ch1 := AtomicHabitsID + "#(1)OEBPS/ch01.xhtml"
	ch2 := AtomicHabitsID + "#(2)OEBPS/ch02.xhtml"
	chapters := []ChapterRow{
		{ContentID: ch1, BookID: AtomicHabitsID, Title: "OEBPS/ch01.xhtml", VolumeIndex: 1, TOCTitle: "Ch1"},
		{ContentID: ch2, BookID: AtomicHabitsID, Title: "OEBPS/ch02.xhtml", VolumeIndex: 2, TOCTitle: "Ch2"},
	}
	for _, c := range chapters {
		if err := f.AddChapter(c); err != nil {
			return err
		}
	}

	// Inserted out of reading order on purpose
	bookmarks := []BookmarkRow{
		{BookmarkID: "hl-3", VolumeID: AtomicHabitsID, ContentID: ch2, Text: "Every action you take is a vote for the type of person you wish to become.",
			ChapterProgress: 0.4, DateCreated: "2025-01-22T09:00:00.000", Color: 2},
		{BookmarkID: "hl-2", VolumeID: AtomicHabitsID, ContentID: ch1, Text: "You do not rise to the level of your goals.\nYou fall to the level of your systems.",
			Annotation: "Systems over goals", ChapterProgress: 0.75, DateCreated: "2025-01-21T09:00:00.000", Color: 0},
		{BookmarkID: "hl-1", VolumeID: AtomicHabitsID, ContentID: ch1, Text: "Habits are the compound interest of self-improvement.",
			ChapterProgress: 0.25, DateCreated: "2025-01-24T09:00:00.000", Color: 0},
	}
	for _, b := range bookmarks {
		if err := f.AddBookmark(b); err != nil {
			return err
		}
	}
	return nil
}
