package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

const defaultImportsLimit = 20

// LibraryController handles import, export and preview of the device library.
type LibraryController struct {
	library Library
}

func NewLibraryController(library Library) *LibraryController {
	return &LibraryController{library: library}
}

type ImportRequest struct {
	DevicePath string `json:"device_path"`
}

// Import handles POST /api/import
func (lc *LibraryController) Import(c *gin.Context) {
	var req ImportRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := lc.library.Import(c.Request.Context(), services.TriggerAPI, req.DevicePath)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListBooks handles GET /api/books
func (lc *LibraryController) ListBooks(c *gin.Context) {
	books := lc.library.Books()
	c.JSON(http.StatusOK, gin.H{
		"books":      books,
		"count":      len(books),
		"highlights": entities.CountHighlights(books),
	})
}

type ExportRequest struct {
	ContentIDs []string               `json:"content_ids"`
	Config     *entities.ExportConfig `json:"config"`
}

// Export handles POST /api/export
// Writes the selected books of the last import. Without a config the saved
// settings are used.
func (lc *LibraryController) Export(c *gin.Context) {
	var req ExportRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if !validateOptionalConfig(c, req.Config) {
		return
	}

	result, err := lc.library.Export(c.Request.Context(), req.ContentIDs, req.Config)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type PreviewRequest struct {
	ContentID string                 `json:"content_id" binding:"required"`
	Config    *entities.ExportConfig `json:"config"`
}

// Preview handles POST /api/export/preview
func (lc *LibraryController) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content_id is required")
		return
	}
	if req.Config != nil && req.Config.ExportPath == "" {
		// Previews never write, so the destination is irrelevant
		req.Config.ExportPath = "."
	}
	if !validateOptionalConfig(c, req.Config) {
		return
	}

	preview, err := lc.library.Preview(req.ContentID, req.Config)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ListImports handles GET /api/imports
func (lc *LibraryController) ListImports(c *gin.Context) {
	limit, ok := parseLimitQuery(c, "limit", defaultImportsLimit)
	if !ok {
		return
	}

	sessions, err := lc.library.Sessions(limit)
	if err != nil {
		respondInternalError(c, err, "list imports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"imports": sessions, "count": len(sessions)})
}

func validateOptionalConfig(c *gin.Context, cfg *entities.ExportConfig) bool {
	if cfg == nil {
		return true
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidConfig})
		return false
	}
	return true
}
