package importers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

const defaultCoverWorkers = 4

// DeviceScanner finds mounted readers.
type DeviceScanner interface {
	Scan() *entities.Device
	ScanAll() []entities.Device
	Inspect(root string) (entities.Device, bool)
}

// CoverExtractor returns the cached cover of a book, "" when it has none.
type CoverExtractor interface {
	ExtractCover(bookID, epubPath string) (string, error)
}

// BookReader reads the books of one content database.
type BookReader interface {
	ReadBooks(ctx context.Context) (*kobo.ReadResult, error)
}

// ReaderFactory opens a content database.
type ReaderFactory func(dbPath string) (BookReader, error)

func newKoboReader(dbPath string) (BookReader, error) {
	return kobo.NewReader(dbPath)
}

type Option func(*Orchestrator)

// WithCoverWorkers bounds how many EPUBs are opened at once.
func WithCoverWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.coverWorkers = n
		}
	}
}

// WithReaderFactory replaces how content databases are opened.
func WithReaderFactory(f ReaderFactory) Option {
	return func(o *Orchestrator) {
		o.newReader = f
	}
}

// Orchestrator composes the scanner, the database reader, the cover
// extractor and the exporter.
type Orchestrator struct {
	scanner      DeviceScanner
	covers       CoverExtractor
	exporter     exporters.BookExporter
	newReader    ReaderFactory
	coverWorkers int
}

// NewOrchestrator wires the pipeline. covers may be nil to skip cover extraction.
func NewOrchestrator(scanner DeviceScanner, covers CoverExtractor, exporter exporters.BookExporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scanner:      scanner,
		covers:       covers,
		exporter:     exporter,
		newReader:    newKoboReader,
		coverWorkers: defaultCoverWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ImportResult is the library read from one device.
type ImportResult struct {
	Device          entities.Device        `json:"device"`
	Books           []entities.Book        `json:"books"`
	Skipped         []entities.ItemFailure `json:"skipped"`
	CoversExtracted int                    `json:"covers_extracted"`
	HighlightsCount int                    `json:"highlights_count"`
}

// SyncResult is the outcome of an import followed by an export.
type SyncResult struct {
	Import *ImportResult           `json:"import"`
	Export *exporters.ExportResult `json:"export"`
}

func (o *Orchestrator) Scan() *entities.Device {
	return o.scanner.Scan()
}

func (o *Orchestrator) ScanAll() []entities.Device {
	return o.scanner.ScanAll()
}

// Device returns the volume mounted at path, or the first scanned device
// when path is empty. It returns nil when there is no Kobo there; the
// returned device may still be invalid if its database is unreadable.
func (o *Orchestrator) Device(path string) *entities.Device {
	if path == "" {
		return o.Scan()
	}
	dev, ok := o.scanner.Inspect(path)
	if !ok {
		return nil
	}
	return &dev
}

// Import reads every book from the device and attaches cached covers.
//
// Rows and covers that fail are listed in ImportResult.Skipped. When ctx is
// cancelled, only books whose processing completed are returned, together
// with ctx.Err().
func (o *Orchestrator) Import(ctx context.Context, dev *entities.Device) (*ImportResult, error) {
	if dev == nil || !dev.Valid {
		return nil, stageError(entities.StageDevice, ErrDeviceNotFound)
	}
	start := time.Now()

	reader, err := o.newReader(dev.DatabasePath())
	if err != nil {
		return nil, stageError(entities.StageDatabase, err)
	}
	read, err := reader.ReadBooks(ctx)
	if read == nil {
		if err == nil {
			err = errors.New("reader returned no result")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, stageError(entities.StageDatabase, err)
	}

	result := &ImportResult{
		Device:  *dev,
		Books:   read.Books,
		Skipped: append([]entities.ItemFailure{}, read.Skipped...),
	}
	if result.Books == nil {
		result.Books = []entities.Book{}
	}
	if err != nil {
		result.HighlightsCount = entities.CountHighlights(result.Books)
		return result, err
	}

	if err := o.attachCovers(ctx, dev, result); err != nil {
		result.HighlightsCount = entities.CountHighlights(result.Books)
		log.Info("import cancelled", zap.String("device", dev.Identifier()), zap.Int("books", len(result.Books)))
		return result, err
	}
	result.HighlightsCount = entities.CountHighlights(result.Books)

	log.Info("import completed",
		zap.String("device", dev.Identifier()),
		zap.Int("books", len(result.Books)),
		zap.Int("highlights", result.HighlightsCount),
		zap.Int("covers", result.CoversExtracted),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("took", time.Since(start)))

	return result, nil
}

// attachCovers extracts covers with bounded parallelism. Cover failures never
// fail the import; on cancellation result.Books is cut down to the books that
// were fully processed.
func (o *Orchestrator) attachCovers(ctx context.Context, dev *entities.Device, result *ImportResult) error {
	if o.covers == nil || len(result.Books) == 0 {
		return ctx.Err()
	}

	books := result.Books
	done := make([]bool, len(books))
	var (
		mu       sync.Mutex
		failures []entities.ItemFailure
	)

	g := new(errgroup.Group)
	g.SetLimit(o.coverWorkers)
	for i := range books {
		// Go blocks while all workers are busy, so this runs between books
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			path, err := o.extractCover(dev, books[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("cover extraction failed", zap.String("book", books[i].Title), zap.Error(err))
				failures = append(failures, entities.ItemFailure{
					Key:   books[i].ContentID,
					Stage: entities.StageCover,
					Err:   err,
				})
			} else if path != "" {
				books[i].CoverPath = path
				result.CoversExtracted++
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Key < failures[j].Key })
	result.Skipped = append(result.Skipped, failures...)

	if err := ctx.Err(); err != nil {
		completed := make([]entities.Book, 0, len(books))
		for i, book := range books {
			if done[i] {
				completed = append(completed, book)
			}
		}
		result.Books = completed
		return err
	}
	return nil
}

// extractCover resolves the EPUB of a book on the device. Store books have no
// file URI and live under .kobo/kepub instead.
func (o *Orchestrator) extractCover(dev *entities.Device, book entities.Book) (string, error) {
	rel := book.FilePath
	if rel == "" {
		rel = kobo.KepubPath(book.ContentID)
	}
	if rel == "" {
		return "", nil
	}
	return o.covers.ExtractCover(book.ContentID, dev.ResolvePath(rel))
}

// Export writes the books with cfg. An unusable destination is returned as a
// *StageError; files that fail individually are listed in the result.
func (o *Orchestrator) Export(ctx context.Context, books []entities.Book, cfg entities.ExportConfig) (*exporters.ExportResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, stageError(entities.StageDestination, fmt.Errorf("%w: %w", exporters.ErrDestination, err))
	}

	result, err := o.exporter.Export(ctx, books, cfg)
	if err != nil {
		if errors.Is(err, exporters.ErrDestination) {
			return result, stageError(entities.StageDestination, err)
		}
		return result, err
	}
	return result, nil
}

// Sync scans for a device, imports it and exports every book with cfg.
func (o *Orchestrator) Sync(ctx context.Context, cfg entities.ExportConfig) (*SyncResult, error) {
	dev := o.Scan()
	if dev == nil {
		return nil, stageError(entities.StageDevice, ErrDeviceNotFound)
	}

	imported, err := o.Import(ctx, dev)
	if err != nil {
		return &SyncResult{Import: imported}, err
	}
	exported, err := o.Export(ctx, imported.Books, cfg)
	return &SyncResult{Import: imported, Export: exported}, err
}

// SelectBooks keeps the books whose ContentID is listed, in library order.
// An empty selection keeps every book.
func SelectBooks(books []entities.Book, contentIDs []string) []entities.Book {
	if len(contentIDs) == 0 {
		return books
	}
	wanted := make(map[string]bool, len(contentIDs))
	for _, id := range contentIDs {
		wanted[id] = true
	}
	selected := make([]entities.Book, 0, len(contentIDs))
	for _, book := range books {
		if wanted[book.ContentID] {
			selected = append(selected, book)
		}
	}
	return selected
}
