package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger())
	router.Use(RecoveryLogger())
	router.Use(SecurityHeaders())

	// Content IDs are URIs; route on the escaped path so "%2F" stays inside :id
	router.UseRawPath = true
	router.UnescapePathValues = true

	health := NewHealthController(cfg.Database, cfg.Devices, cfg.Version)
	deviceController := NewDeviceController(cfg.Devices)
	libraryController := NewLibraryController(cfg.Library)
	settingsController := NewSettingsController(cfg.Settings)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Device endpoints
	api.GET("/device", deviceController.GetDevice)
	api.GET("/devices", deviceController.ListDevices)

	// Import and export endpoints
	api.POST("/import", libraryController.Import)
	api.GET("/imports", libraryController.ListImports)
	api.GET("/books", libraryController.ListBooks)
	api.POST("/export", libraryController.Export)
	api.POST("/export/preview", libraryController.Preview)

	// Book cover endpoints
	if cfg.Covers != nil {
		coversController := NewCoversController(cfg.Covers, cfg.Library)
		api.GET("/books/:id/cover", coversController.GetCover)
		api.DELETE("/covers", coversController.ClearCache)
	}

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.POST("/export/async", tasksController.ExportAsync)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	// Settings endpoints
	api.GET("/settings/export", settingsController.GetExportSettings)
	api.PUT("/settings/export", settingsController.UpdateExportSettings)
	api.DELETE("/settings/export", settingsController.ResetExportSettings)
	api.GET("/settings/export-path/default", settingsController.DefaultExportPath)
	api.POST("/settings/export-path/validate", settingsController.ValidateExportPath)
	api.GET("/settings/last-import", settingsController.LastImport)

	// Auto-sync endpoints
	if cfg.AutoSync != nil {
		autoSyncController := NewAutoSyncController(cfg.AutoSync, cfg.Scheduler)
		api.GET("/settings/auto-sync", autoSyncController.GetSettings)
		api.PUT("/settings/auto-sync", autoSyncController.UpdateSettings)
		api.POST("/sync/run", autoSyncController.RunNow)
	}

	return router
}
