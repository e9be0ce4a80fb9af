package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error codes returned alongside failures of the import pipeline.
const (
	CodeDeviceNotFound = "device_not_found"
	CodeNoLibrary      = "no_library"
	CodeBookNotFound   = "book_not_found"
	CodeInvalidConfig  = "invalid_config"
)

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error("internal error", zap.String("context", context), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondPipelineError maps errors from the import pipeline to a status code.
// Pipeline errors describe the device or destination, so the message is kept.
func respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importers.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeDeviceNotFound})
	case errors.Is(err, services.ErrNoLibrary):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "import from a device first", Code: CodeNoLibrary})
	case errors.Is(err, services.ErrBookNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeBookNotFound})
	case errors.Is(err, exporters.ErrDestination):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: entities.StageDestination})
	default:
		var stageErr *importers.StageError
		if errors.As(err, &stageErr) {
			log.Error("pipeline failed", zap.String("stage", stageErr.Stage), zap.Error(stageErr.Err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: stageErr.Stage})
			return
		}
		respondInternalError(c, err, "pipeline")
	}
}

// --- Success Response Helpers ---

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseLimitQuery reads an optional positive integer query parameter.
func parseLimitQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return limit, true
}

// bindOptionalJSON binds a JSON body when one was sent. An empty body leaves
// obj untouched.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}
