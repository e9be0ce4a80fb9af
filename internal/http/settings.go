package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
)

// SettingsController handles export settings and import bookkeeping.
type SettingsController struct {
	settings ExportSettings
}

func NewSettingsController(settings ExportSettings) *SettingsController {
	return &SettingsController{settings: settings}
}

// GetExportSettings handles GET /api/settings/export
func (sc *SettingsController) GetExportSettings(c *gin.Context) {
	c.JSON(http.StatusOK, sc.settings.GetExportConfigInfo())
}

// UpdateExportSettings handles PUT /api/settings/export
func (sc *SettingsController) UpdateExportSettings(c *gin.Context) {
	var cfg entities.ExportConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}
	cfg.ExportPath = strings.TrimSpace(cfg.ExportPath)

	if err := sc.settings.SetExportConfig(cfg); err != nil {
		if cfg.Validate() != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidConfig})
			return
		}
		respondInternalError(c, err, "save export settings")
		return
	}
	c.JSON(http.StatusOK, sc.settings.GetExportConfigInfo())
}

// ResetExportSettings handles DELETE /api/settings/export
func (sc *SettingsController) ResetExportSettings(c *gin.Context) {
	if _, err := sc.settings.ResetExportConfig(); err != nil {
		respondInternalError(c, err, "reset export settings")
		return
	}
	c.JSON(http.StatusOK, sc.settings.GetExportConfigInfo())
}

// DefaultExportPath handles GET /api/settings/export-path/default
func (sc *SettingsController) DefaultExportPath(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"path": sc.settings.DefaultExportConfig().ExportPath})
}

type ValidatePathRequest struct {
	Path string `json:"path"`
}

// ValidateExportPath handles POST /api/settings/export-path/validate
// A missing directory is accepted when it could be created; nothing is created.
func (sc *SettingsController) ValidateExportPath(c *gin.Context) {
	var req ValidatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "invalid request",
		})
		return
	}

	path := strings.TrimSpace(req.Path)
	if strings.ContainsRune(path, '\x00') {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "path contains invalid characters"})
		return
	}
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	if err := exporters.ValidateExportPath(path); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"path":  path,
	})
}

// LastImport handles GET /api/settings/last-import
func (sc *SettingsController) LastImport(c *gin.Context) {
	record := sc.settings.GetLastImport()
	if record == nil {
		respondNotFound(c, "last import")
		return
	}
	c.JSON(http.StatusOK, record)
}
