package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/device"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/kobo/kobotest"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

type testServer struct {
	router    *gin.Engine
	library   *services.LibraryService
	settings  *settingsstore.SettingsStore
	db        *database.Database
	deviceDir string
	exportDir string
}

// setupTestServer wires the real pipeline against a temporary Kobo volume.
func setupTestServer(t *testing.T, withDevice bool, extra func(*RouterConfig)) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mount := t.TempDir()
	deviceDir := filepath.Join(mount, "KOBOeReader")
	if withDevice {
		fixture, err := kobotest.CreateDevice(deviceDir, "N905000000001")
		require.NoError(t, err)
		require.NoError(t, kobotest.SeedSample(fixture))
		require.NoError(t, fixture.Close())
	}

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exportDir := filepath.Join(t.TempDir(), "export")
	settings := settingsstore.New(db, &config.Config{Export: config.Export{Dir: exportDir}})
	orchestrator := importers.NewOrchestrator(device.NewScanner([]string{mount}), nil, exporters.NewMarkdownExporter())
	library := services.NewLibraryService(orchestrator, settings, db.Sessions())

	cfg := RouterConfig{
		Library:  library,
		Devices:  orchestrator,
		Settings: settings,
		Database: db,
		AutoSync: settings,
		Version:  "test",
	}
	if extra != nil {
		extra(&cfg)
	}

	return testServer{
		router:    NewRouter(cfg),
		library:   library,
		settings:  settings,
		db:        db,
		deviceDir: deviceDir,
		exportDir: exportDir,
	}
}

func performRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type fakeQueue struct {
	mu     sync.Mutex
	tasks  []backlite.Task
	status string
	err    error
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "task-42", nil
}

func (q *fakeQueue) StatusString(ctx context.Context, taskID string) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	return q.status, nil
}

type fakeScheduler struct {
	rescheduled int
	triggers    []string
	taskID      string
	err         error
	next        *time.Time
}

func (s *fakeScheduler) Reschedule() error {
	s.rescheduled++
	return nil
}

func (s *fakeScheduler) RunNow(trigger string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.triggers = append(s.triggers, trigger)
	return s.taskID, nil
}

func (s *fakeScheduler) IsRunning() bool { return s.next != nil }

func (s *fakeScheduler) NextRunTime() *time.Time { return s.next }

type fakeCovers struct {
	cached  map[string]string
	cleared int
}

func (f *fakeCovers) CachedCover(bookID string) string {
	return f.cached[bookID]
}

func (f *fakeCovers) ClearCache() (int, error) {
	f.cleared++
	return len(f.cached), nil
}
