package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/tasks"
)

// TasksController handles background export endpoints.
type TasksController struct {
	queue TaskQueue
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// ExportAsyncRequest is the request body for POST /api/export/async.
type ExportAsyncRequest struct {
	DevicePath string `json:"device_path"`
	ExportRequest
}

// ExportAsync handles POST /api/export/async
// The task imports from the device again when it runs, so it does not depend
// on the in-memory library.
func (tc *TasksController) ExportAsync(c *gin.Context) {
	var req ExportAsyncRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if !validateOptionalConfig(c, req.Config) {
		return
	}

	taskID, err := tc.queue.Enqueue(tasks.ExportBooksTask{
		DevicePath: req.DevicePath,
		ContentIDs: req.ContentIDs,
		Config:     req.Config,
	})
	if err != nil {
		respondInternalError(c, err, "enqueue export")
		return
	}

	respondAccepted(c, "export enqueued", gin.H{"task_id": taskID})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.StatusString(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == "not_found" {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": status,
	})
}
