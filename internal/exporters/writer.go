package exporters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/utils"
)

var (
	// ErrDestination means the export directory cannot be used. Nothing is written.
	ErrDestination = errors.New("export destination unavailable")

	// ErrWrite is reported per book when its file cannot be written.
	ErrWrite = errors.New("failed to write export file")
)

// MarkdownExporter writes one Markdown document per book into the export
// path of the configuration.
type MarkdownExporter struct{}

func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export writes every book. A book that cannot be written is recorded in
// ExportResult.Failures and the rest of the batch continues. Files are renamed
// into place only once fully written, so a cancelled or failed export never
// leaves a partial document behind.
func (exporter *MarkdownExporter) Export(ctx context.Context, books []entities.Book, cfg entities.ExportConfig) (*ExportResult, error) {
	result := newExportResult()

	dir, err := prepareDestination(cfg.ExportPath)
	if err != nil {
		return result, err
	}

	used := make(map[string]bool, len(books))
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			log.Info("export cancelled",
				zap.Int("written", result.BooksProcessed),
				zap.Int("remaining", len(books)-result.BooksProcessed-result.BooksFailed))
			return result, err
		}

		name := uniqueFilename(utils.GenerateFilename(book.Title, book.Author), used)
		path := filepath.Join(dir, name)

		if err := writeFileAtomic(dir, name, []byte(Render(book, cfg))); err != nil {
			log.Error("failed to export book", zap.String("book", book.Title), zap.String("path", path), zap.Error(err))
			result.BooksFailed++
			result.HighlightsFailed += len(book.Highlights)
			result.Failures = append(result.Failures, entities.ItemFailure{
				Key:   book.ContentID,
				Stage: entities.StageWrite,
				Err:   fmt.Errorf("%w %s: %w", ErrWrite, name, err),
			})
			continue
		}

		result.BooksProcessed++
		result.HighlightsProcessed += len(book.Highlights)
		result.Files = append(result.Files, ExportedFile{
			ContentID:  book.ContentID,
			Title:      book.Title,
			Path:       path,
			Highlights: len(book.Highlights),
		})
		log.Debug("exported book", zap.String("book", book.Title), zap.String("path", path))
	}

	log.Info("export completed",
		zap.String("dir", dir),
		zap.Int("books_processed", result.BooksProcessed),
		zap.Int("highlights_processed", result.HighlightsProcessed),
		zap.Int("books_failed", result.BooksFailed))

	return result, nil
}

// ValidateExportPath checks that path is, or could be created as, a writable
// directory. A missing path is judged by its nearest existing ancestor and
// nothing is left on disk.
func ValidateExportPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: no export path configured", ErrDestination)
	}

	dir, err := existingAncestor(filepath.Clean(path))
	if err != nil {
		return err
	}

	probe, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %w", ErrDestination, dir, err)
	}
	probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDestination, dir, err)
	}
	return nil
}

// existingAncestor returns path itself when it exists, otherwise the closest
// parent that does. Whatever exists must be a directory.
func existingAncestor(path string) (string, error) {
	for {
		info, err := os.Stat(path)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%w: %s is not a directory", ErrDestination, path)
			}
			return path, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %w", ErrDestination, err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("%w: no existing parent for %s", ErrDestination, path)
		}
		path = parent
	}
}

func prepareDestination(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: no export path configured", ErrDestination)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %w", ErrDestination, path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDestination, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrDestination, path)
	}
	return path, nil
}

// uniqueFilename appends " (2)", " (3)"... to names already used in this batch.
// Comparison ignores case, like the filesystems on most readers' hosts.
func uniqueFilename(name string, used map[string]bool) string {
	candidate := name
	base := strings.TrimSuffix(name, ".md")
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d).md", base, n)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// writeFileAtomic writes data to dir/name through a temp file in dir.
func writeFileAtomic(dir, name string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(dir, name))
}
