package exporters

import (
	"context"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

type BookExporter interface {
	Export(ctx context.Context, books []entities.Book, cfg entities.ExportConfig) (*ExportResult, error)
}

type ExportResult struct {
	BooksProcessed      int                    `json:"books_processed"`
	HighlightsProcessed int                    `json:"highlights_processed"`
	BooksFailed         int                    `json:"books_failed"`
	HighlightsFailed    int                    `json:"highlights_failed"`
	Files               []ExportedFile         `json:"files"`
	Failures            []entities.ItemFailure `json:"failures"`
}

// ExportedFile is one document written by an export.
type ExportedFile struct {
	ContentID  string `json:"content_id"`
	Title      string `json:"title"`
	Path       string `json:"path"`
	Highlights int    `json:"highlights"`
}

func newExportResult() *ExportResult {
	return &ExportResult{
		Files:    []ExportedFile{},
		Failures: []entities.ItemFailure{},
	}
}
