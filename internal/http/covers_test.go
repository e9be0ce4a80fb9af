package http

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/kobo/kobotest"
)

func coverURL(contentID string) string {
	return "/api/books/" + url.PathEscape(contentID) + "/cover"
}

func TestCoversController_GetCover(t *testing.T) {
	cached := filepath.Join(t.TempDir(), "cover_abc.jpg")
	require.NoError(t, os.WriteFile(cached, []byte("\xFF\xD8\xFF\xE0fake-jpeg"), 0644))

	store := &fakeCovers{cached: map[string]string{kobotest.SapiensID: cached}}
	server := setupTestServer(t, true, func(cfg *RouterConfig) {
		cfg.Covers = store
	})

	t.Run("serves a cached cover by escaped content id", func(t *testing.T) {
		w := performRequest(server.router, "GET", coverURL(kobotest.SapiensID), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "\xFF\xD8\xFF\xE0fake-jpeg", w.Body.String())
		assert.Equal(t, "private, max-age=3600", w.Header().Get("Cache-Control"))
	})

	t.Run("returns 404 when nothing is cached", func(t *testing.T) {
		w := performRequest(server.router, "GET", coverURL(kobotest.AtomicHabitsID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCoversController_ClearCache(t *testing.T) {
	store := &fakeCovers{cached: map[string]string{"a": "x", "b": "y"}}
	server := setupTestServer(t, false, func(cfg *RouterConfig) {
		cfg.Covers = store
	})

	w := performRequest(server.router, "DELETE", "/api/covers", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":2}`, w.Body.String())
	assert.Equal(t, 1, store.cleared)
}

func TestCoversController_Disabled(t *testing.T) {
	server := setupTestServer(t, false, nil)

	w := performRequest(server.router, "DELETE", "/api/covers", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
