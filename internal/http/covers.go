package http

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// CoversController handles book cover requests.
type CoversController struct {
	covers  CoverStore
	library Library
}

// NewCoversController creates a new CoversController.
func NewCoversController(covers CoverStore, library Library) *CoversController {
	return &CoversController{
		covers:  covers,
		library: library,
	}
}

// GetCover serves a cached book cover image.
// GET /api/books/:id/cover, where :id is the URL-escaped content ID
func (cc *CoversController) GetCover(c *gin.Context) {
	contentID := c.Param("id")
	if contentID == "" {
		respondBadRequest(c, "invalid id")
		return
	}

	path := ""
	if book, err := cc.library.Book(contentID); err == nil {
		path = book.CoverPath
	}
	if path == "" || !fileExists(path) {
		// Covers extracted by an earlier run outlive the in-memory library
		path = cc.covers.CachedCover(contentID)
	}
	if path == "" {
		respondNotFound(c, "cover")
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.File(path)
}

// ClearCache handles DELETE /api/covers
func (cc *CoversController) ClearCache(c *gin.Context) {
	removed, err := cc.covers.ClearCache()
	if err != nil {
		respondInternalError(c, err, "clear cover cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
