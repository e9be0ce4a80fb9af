// Command generate_demo lays out a fake Kobo volume with public domain books,
// so the pipeline can be tried without a reader attached.
// Usage: go run ./cmd/generate_demo [--out ./demo/KOBOeReader] [--serial N905...]
package main

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"time"

	epub "github.com/go-shiori/go-epub"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/kobo/kobotest"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

const (
	defaultDemoRoot   = "./demo/KOBOeReader"
	defaultDemoSerial = "N905000000042"
	koboDateLayout    = "2006-01-02T15:04:05.000"
)

type summary struct {
	Books      int
	Highlights int
}

func main() {
	root := pflag.String("out", defaultDemoRoot, "directory to create the demo device in")
	serial := pflag.String("serial", defaultDemoSerial, "serial number written to .kobo/version")
	pflag.Parse()

	log.Setup(config.Log{Level: "info"})
	defer log.Sync()

	log.Info("generating demo device", zap.String("path", *root))

	result, err := generate(*root, *serial, time.Now())
	if err != nil {
		log.Fatal("failed to generate demo device", zap.Error(err))
	}

	log.Info("demo device generated",
		zap.String("path", *root),
		zap.Int("books", result.Books),
		zap.Int("highlights", result.Highlights))
}

// generate writes the content database, the version file and one EPUB with a
// cover per book under root. An existing content database is replaced.
func generate(root, serial string, now time.Time) (summary, error) {
	var result summary

	dbPath := filepath.Join(root, entities.KoboDirName, entities.KoboDatabaseName)
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return result, fmt.Errorf("failed to remove existing database: %w", err)
	}

	fixture, err := kobotest.CreateDevice(root, serial)
	if err != nil {
		return result, err
	}
	defer fixture.Close()

	scratch, err := os.MkdirTemp("", "kobo-demo-")
	if err != nil {
		return result, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	for _, book := range publicDomainBooks() {
		n, err := addBook(fixture, root, scratch, book, now)
		if err != nil {
			return result, fmt.Errorf("%s: %w", book.title, err)
		}
		log.Info("added book",
			zap.String("title", book.title),
			zap.String("author", book.author),
			zap.Int("highlights", n))
		result.Books++
		result.Highlights += n
	}
	return result, nil
}

func addBook(fixture *kobotest.Fixture, root, scratch string, book demoBook, now time.Time) (int, error) {
	contentID := book.storeID
	rel := kobo.KepubPath(book.storeID)
	if book.file != "" {
		contentID = kobotest.BookContentID(book.file)
		rel = book.file
	}

	sections, err := writeEPUB(filepath.Join(root, filepath.FromSlash(rel)), scratch, book)
	if err != nil {
		return 0, err
	}

	err = fixture.AddBook(kobotest.BookRow{
		ContentID:    contentID,
		Title:        book.title,
		Author:       book.author,
		ISBN:         book.isbn,
		Publisher:    book.publisher,
		Language:     book.language,
		Description:  book.description,
		DateLastRead: now.AddDate(0, 0, -book.daysSinceRead).UTC().Format(koboDateLayout),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert book: %w", err)
	}

	count := 0
	for i, chapter := range book.chapters {
		chapterID := chapterContentID(book, contentID, i+1, sections[i])
		err := fixture.AddChapter(kobotest.ChapterRow{
			ContentID:   chapterID,
			BookID:      contentID,
			Title:       sections[i],
			VolumeIndex: i + 1,
			TOCTitle:    chapter.title,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to insert chapter: %w", err)
		}

		for j, h := range chapter.highlights {
			created := now.AddDate(0, 0, -book.daysSinceRead).Add(-time.Duration(len(book.chapters)-i) * time.Hour).Add(time.Duration(j) * time.Minute)
			err := fixture.AddBookmark(kobotest.BookmarkRow{
				BookmarkID:      uuid.NewString(),
				VolumeID:        contentID,
				ContentID:       chapterID,
				Text:            h.text,
				Annotation:      h.note,
				ContainerPath:   "span#kobo\\.1\\." + strconv.Itoa(j+1),
				ChapterProgress: float64(j+1) / float64(len(chapter.highlights)+1),
				DateCreated:     created.UTC().Format(koboDateLayout),
				Color:           h.color,
			})
			if err != nil {
				return 0, fmt.Errorf("failed to insert highlight: %w", err)
			}
			count++
		}
	}
	return count, nil
}

// chapterContentID follows the device's naming: sideloaded books append the
// spine index and section path to the file URI, store books join with "!".
func chapterContentID(book demoBook, contentID string, index int, section string) string {
	if book.file == "" {
		return contentID + "!" + section
	}
	return contentID + "#(" + strconv.Itoa(index) + ")" + section
}

// writeEPUB builds the book with a solid-color cover and one section per
// chapter. It returns the archive path of every section.
func writeEPUB(dest, scratch string, book demoBook) ([]string, error) {
	e, err := epub.NewEpub(book.title)
	if err != nil {
		return nil, fmt.Errorf("failed to create epub: %w", err)
	}
	e.SetAuthor(book.author)
	e.SetLang(book.language)
	if book.description != "" {
		e.SetDescription(book.description)
	}

	coverFile, err := writeCoverImage(scratch, book)
	if err != nil {
		return nil, err
	}
	coverPath, err := e.AddImage(coverFile, "cover.png")
	if err != nil {
		return nil, fmt.Errorf("failed to add cover: %w", err)
	}
	e.SetCover(coverPath, "")

	sections := make([]string, 0, len(book.chapters))
	for i, chapter := range book.chapters {
		var body bytes.Buffer
		fmt.Fprintf(&body, "<h1>%s</h1>", html.EscapeString(chapter.title))
		for _, h := range chapter.highlights {
			fmt.Fprintf(&body, "<p>%s</p>", html.EscapeString(h.text))
		}
		filename := fmt.Sprintf("ch%02d.xhtml", i+1)
		if _, err := e.AddSection(body.String(), chapter.title, filename, ""); err != nil {
			return nil, fmt.Errorf("failed to add section: %w", err)
		}
		sections = append(sections, "EPUB/xhtml/"+filename)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	if err := e.Write(dest); err != nil {
		return nil, fmt.Errorf("failed to write epub: %w", err)
	}
	return sections, nil
}

func writeCoverImage(dir string, book demoBook) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 90))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: book.cover}, image.Point{}, draw.Src)

	path := filepath.Join(dir, uuid.NewString()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create cover image: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode cover image: %w", err)
	}
	return path, nil
}
