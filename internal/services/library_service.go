package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

var (
	// ErrNoLibrary means nothing has been imported since the process started.
	ErrNoLibrary = errors.New("no library imported yet")

	ErrBookNotFound = errors.New("book not found")
)

// LibraryService runs imports and exports on behalf of the CLI, the HTTP API,
// background tasks and the scheduler. It records every run as an import
// session and keeps the most recent import in memory so that exports and
// previews can be served without reading the device again.
type LibraryService struct {
	orchestrator *importers.Orchestrator
	settings     SettingsProvider
	sessions     SessionStore

	mu      sync.RWMutex
	library *importers.ImportResult
}

// NewLibraryService creates the service. sessions may be nil to skip history.
func NewLibraryService(orchestrator *importers.Orchestrator, settings SettingsProvider, sessions SessionStore) *LibraryService {
	return &LibraryService{
		orchestrator: orchestrator,
		settings:     settings,
		sessions:     sessions,
	}
}

func (s *LibraryService) Orchestrator() *importers.Orchestrator {
	return s.orchestrator
}

// exportRequest selects what a run exports after importing.
type exportRequest struct {
	contentIDs []string
	config     *entities.ExportConfig
}

// Import reads the device at devicePath (or the first scanned device when
// empty) and keeps the result as the current library.
func (s *LibraryService) Import(ctx context.Context, trigger, devicePath string) (*importers.ImportResult, error) {
	result, err := s.run(ctx, trigger, devicePath, nil)
	if result == nil {
		return nil, err
	}
	return result.Import, err
}

// ImportAndExport imports from the device and exports the selected books.
// A nil cfg uses the saved export configuration.
func (s *LibraryService) ImportAndExport(ctx context.Context, trigger, devicePath string, contentIDs []string, cfg *entities.ExportConfig) (*importers.SyncResult, error) {
	return s.run(ctx, trigger, devicePath, &exportRequest{contentIDs: contentIDs, config: cfg})
}

// Sync exports every book of the first scanned device with the saved settings.
func (s *LibraryService) Sync(ctx context.Context, trigger string) (*importers.SyncResult, error) {
	return s.ImportAndExport(ctx, trigger, "", nil, nil)
}

func (s *LibraryService) run(ctx context.Context, trigger, devicePath string, export *exportRequest) (*importers.SyncResult, error) {
	dev := s.orchestrator.Device(devicePath)
	if dev == nil {
		return nil, &importers.StageError{Stage: entities.StageDevice, Err: importers.ErrDeviceNotFound}
	}

	session := s.startSession(trigger, *dev)

	imported, err := s.orchestrator.Import(ctx, dev)
	if err != nil {
		s.finishSession(session, imported, nil, err)
		return &importers.SyncResult{Import: imported}, err
	}
	s.remember(imported)

	result := &importers.SyncResult{Import: imported}
	if export != nil {
		books := importers.SelectBooks(imported.Books, export.contentIDs)
		result.Export, err = s.orchestrator.Export(ctx, books, s.exportConfig(export.config))
	}
	s.finishSession(session, imported, result.Export, err)
	return result, err
}

// Export writes books from the current library. An empty contentIDs exports
// all of them.
func (s *LibraryService) Export(ctx context.Context, contentIDs []string, cfg *entities.ExportConfig) (*exporters.ExportResult, error) {
	library := s.Library()
	if library == nil {
		return nil, ErrNoLibrary
	}
	books := importers.SelectBooks(library.Books, contentIDs)
	return s.orchestrator.Export(ctx, books, s.exportConfig(cfg))
}

// Preview renders one book of the current library without writing it.
func (s *LibraryService) Preview(contentID string, cfg *entities.ExportConfig) (*exporters.PreviewResult, error) {
	book, err := s.Book(contentID)
	if err != nil {
		return nil, err
	}
	preview := exporters.Preview(book, s.exportConfig(cfg))
	return &preview, nil
}

// Library returns the most recent successful import, nil when there is none.
func (s *LibraryService) Library() *importers.ImportResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.library
}

// Books returns the books of the current library.
func (s *LibraryService) Books() []entities.Book {
	library := s.Library()
	if library == nil {
		return []entities.Book{}
	}
	return library.Books
}

func (s *LibraryService) Book(contentID string) (entities.Book, error) {
	library := s.Library()
	if library == nil {
		return entities.Book{}, ErrNoLibrary
	}
	for _, book := range library.Books {
		if book.ContentID == contentID {
			return book, nil
		}
	}
	return entities.Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, contentID)
}

// Sessions returns recent import history, newest first.
func (s *LibraryService) Sessions(limit int) ([]entities.ImportSession, error) {
	if s.sessions == nil {
		return []entities.ImportSession{}, nil
	}
	return s.sessions.Recent(limit)
}

func (s *LibraryService) exportConfig(cfg *entities.ExportConfig) entities.ExportConfig {
	if cfg != nil {
		return *cfg
	}
	return s.settings.GetExportConfig()
}

func (s *LibraryService) remember(result *importers.ImportResult) {
	s.mu.Lock()
	s.library = result
	s.mu.Unlock()

	err := s.settings.SetLastImport(entities.LastImportRecord{
		Timestamp:       time.Now().UTC(),
		DeviceID:        result.Device.Identifier(),
		BooksCount:      len(result.Books),
		HighlightsCount: result.HighlightsCount,
	})
	if err != nil {
		log.Warn("failed to save last import", zap.Error(err))
	}
}

func (s *LibraryService) startSession(trigger string, dev entities.Device) *entities.ImportSession {
	if s.sessions == nil {
		return nil
	}
	session, err := s.sessions.Start(trigger, dev)
	if err != nil {
		log.Warn("failed to record import session", zap.Error(err))
		return nil
	}
	return session
}

// finishSession fills the session counters from the run's results and saves it.
func (s *LibraryService) finishSession(session *entities.ImportSession, imported *importers.ImportResult, exported *exporters.ExportResult, runErr error) {
	if session == nil {
		return
	}

	failures := []entities.ItemFailure{}
	if imported != nil {
		session.BooksCount = len(imported.Books)
		session.HighlightsCount = imported.HighlightsCount
		session.CoversCount = imported.CoversExtracted
		failures = append(failures, imported.Skipped...)
	}
	if exported != nil {
		session.FilesWritten = len(exported.Files)
		failures = append(failures, exported.Failures...)
	}
	session.SkippedCount = len(failures)
	session.Status = sessionStatus(runErr, len(failures))

	if runErr != nil {
		fatal := entities.ItemFailure{Err: runErr}
		var stageErr *importers.StageError
		if errors.As(runErr, &stageErr) {
			fatal = entities.ItemFailure{Stage: stageErr.Stage, Err: stageErr.Err}
		}
		failures = append(failures, fatal)
	}
	if len(failures) > 0 {
		if data, err := json.Marshal(failures); err == nil {
			session.Errors = string(data)
		}
	}

	if err := s.sessions.Complete(session); err != nil {
		log.Warn("failed to complete import session", zap.String("session", session.ID), zap.Error(err))
	}
}

func sessionStatus(runErr error, failures int) entities.ImportStatus {
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		return entities.ImportStatusCancelled
	case runErr != nil:
		return entities.ImportStatusFailed
	case failures > 0:
		return entities.ImportStatusPartial
	default:
		return entities.ImportStatusCompleted
	}
}
