// Package covers extracts cover images out of EPUB files and keeps them in a
// local cache directory, one file per book.
package covers

import (
	"archive/zip"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/log"
)

// ErrArchive is returned when the EPUB exists but is not a readable zip archive.
var ErrArchive = errors.New("cannot open epub archive")

// Cache file naming: covers are cover_<hash>.<ext>, in-flight writes are
// .cover-<random>.tmp.
const (
	coverPrefix = "cover_"
	tempPrefix  = ".cover-"
	tempSuffix  = ".tmp"
)

// ArchiveOpener opens an EPUB as a zip archive.
type ArchiveOpener func(name string) (*zip.ReadCloser, error)

// Extractor handles extraction and local caching of book cover images.
type Extractor struct {
	cacheDir string
	open     ArchiveOpener
}

// NewExtractor creates an extractor that caches covers in cacheDir.
func NewExtractor(cacheDir string) (*Extractor, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Extractor{
		cacheDir: cacheDir,
		open:     zip.OpenReader,
	}, nil
}

// SetArchiveOpener replaces how EPUB archives are opened.
func (e *Extractor) SetArchiveOpener(open ArchiveOpener) {
	e.open = open
}

// ExtractCover returns the cached cover image of a book, extracting it from
// the EPUB at epubPath when the cache is missing or older than the EPUB.
//
// An empty path with a nil error means the book has no usable cover: the
// file is missing, the package document cannot be parsed, or no cover is
// declared. Only an archive that cannot be opened at all yields ErrArchive.
func (e *Extractor) ExtractCover(bookID, epubPath string) (string, error) {
	if epubPath == "" {
		return "", nil
	}
	info, err := os.Stat(epubPath)
	if err != nil || info.IsDir() {
		log.Debug("epub not available", zap.String("book", bookID), zap.String("path", epubPath))
		return "", nil
	}
	sourceTime := info.ModTime()

	// Check cache before touching the archive
	if cached := e.CachedCover(bookID); cached != "" {
		if ci, err := os.Stat(cached); err == nil && ci.ModTime().Equal(sourceTime) {
			return cached, nil
		}
	}

	zr, err := e.open(epubPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrArchive, epubPath, err)
	}
	defer zr.Close()

	img, err := locateCover(&zr.Reader)
	if err != nil {
		log.Debug("no cover found", zap.String("book", bookID), zap.String("path", epubPath), zap.Error(err))
		// The source changed and no longer has a cover
		_ = e.InvalidateCover(bookID)
		return "", nil
	}

	data, err := readEntry(img.file, maxCoverSize)
	if err != nil {
		log.Debug("cannot read cover image", zap.String("book", bookID), zap.String("entry", img.file.Name), zap.Error(err))
		return "", nil
	}

	cachePath, err := e.store(bookID, img.extension(), data, sourceTime)
	if err != nil {
		return "", fmt.Errorf("failed to cache cover for %s: %w", bookID, err)
	}
	log.Debug("extracted cover", zap.String("book", bookID), zap.String("entry", img.file.Name), zap.String("cache", cachePath))
	return cachePath, nil
}

// CachedCover returns the cache file of a book without checking freshness,
// or "" when nothing is cached.
func (e *Extractor) CachedCover(bookID string) string {
	matches := e.entries(bookID)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// InvalidateCover removes the cached cover for a book.
func (e *Extractor) InvalidateCover(bookID string) error {
	for _, match := range e.entries(bookID) {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ClearCache removes cached covers and leftover temp files from the cache
// directory and reports how many were removed. Other files are left alone.
func (e *Extractor) ClearCache() (int, error) {
	entries, err := os.ReadDir(e.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isCacheFile(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(e.cacheDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	log.Info("cleared cover cache", zap.String("dir", e.cacheDir), zap.Int("removed", removed))
	return removed, nil
}

// CacheDir returns the cache directory path.
func (e *Extractor) CacheDir() string {
	return e.cacheDir
}

// coverBase is the cache file name of a book without extension.
func coverBase(bookID string) string {
	hash := sha256.Sum256([]byte(bookID))
	return fmt.Sprintf("%s%x", coverPrefix, hash[:12])
}

// isCacheFile reports whether name was written by store.
func isCacheFile(name string) bool {
	if strings.HasPrefix(name, coverPrefix) {
		return true
	}
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}

// entries lists the cache files of a book, whatever their extension.
func (e *Extractor) entries(bookID string) []string {
	dirEntries, err := os.ReadDir(e.cacheDir)
	if err != nil {
		return nil
	}
	prefix := coverBase(bookID) + "."
	var out []string
	for _, entry := range dirEntries {
		if entry.Type().IsRegular() && strings.HasPrefix(entry.Name(), prefix) {
			out = append(out, filepath.Join(e.cacheDir, entry.Name()))
		}
	}
	return out
}

// store writes a cover atomically and stamps it with the source's mtime.
func (e *Extractor) store(bookID, ext string, data []byte, sourceTime time.Time) (string, error) {
	cachePath := filepath.Join(e.cacheDir, coverBase(bookID)+ext)

	// Create temp file in same directory for atomic rename
	tmpFile, err := os.CreateTemp(e.cacheDir, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}
	if err := os.Chtimes(tmpPath, sourceTime, sourceTime); err != nil {
		return "", err
	}

	// A previous extraction may have used another extension
	for _, stale := range e.entries(bookID) {
		if stale != cachePath {
			os.Remove(stale)
		}
	}

	if err := os.Rename(tmpPath, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%s is larger than %d bytes", f.Name, limit)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is larger than %d bytes", f.Name, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", f.Name)
	}
	return data, nil
}
