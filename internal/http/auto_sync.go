package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

// AutoSyncController handles periodic sync settings and manual runs.
type AutoSyncController struct {
	settings  AutoSyncSettings
	scheduler SyncScheduler
}

// NewAutoSyncController creates the controller. scheduler may be nil.
func NewAutoSyncController(settings AutoSyncSettings, scheduler SyncScheduler) *AutoSyncController {
	return &AutoSyncController{
		settings:  settings,
		scheduler: scheduler,
	}
}

// AutoSyncSettingsResponse is the response for GET /api/settings/auto-sync
type AutoSyncSettingsResponse struct {
	Config    settingsstore.AutoSyncConfigInfo `json:"config"`
	Status    settingsstore.AutoSyncStatus     `json:"status"`
	NextRun   *time.Time                       `json:"next_run,omitempty"`
	IsRunning bool                             `json:"is_running"`
	Presets   []SchedulePreset                 `json:"presets"`
}

// SchedulePreset is a predefined schedule option
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every 30 minutes", Value: "*/30 * * * *", Description: "Runs at :00, :30"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
}

// GetSettings handles GET /api/settings/auto-sync
func (ac *AutoSyncController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, ac.response())
}

// UpdateAutoSyncRequest is the request body for PUT /api/settings/auto-sync.
// Omitted fields keep their current value.
type UpdateAutoSyncRequest struct {
	Enabled  *bool  `json:"enabled"`
	Schedule string `json:"schedule"`
}

// UpdateSettings handles PUT /api/settings/auto-sync
func (ac *AutoSyncController) UpdateSettings(c *gin.Context) {
	var req UpdateAutoSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	// Validate before saving anything so a bad schedule leaves the settings untouched
	if req.Schedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.Schedule); err != nil {
			respondBadRequest(c, "invalid cron schedule: "+err.Error())
			return
		}
		if err := ac.settings.SetAutoSyncSchedule(req.Schedule); err != nil {
			respondInternalError(c, err, "save schedule")
			return
		}
	}

	if req.Enabled != nil {
		if err := ac.settings.SetAutoSyncEnabled(*req.Enabled); err != nil {
			respondInternalError(c, err, "save enabled state")
			return
		}
	}

	if ac.scheduler != nil {
		if err := ac.scheduler.Reschedule(); err != nil {
			respondError(c, http.StatusInternalServerError, "settings saved but failed to reschedule: "+err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, ac.response())
}

// RunNow handles POST /api/sync/run
func (ac *AutoSyncController) RunNow(c *gin.Context) {
	if ac.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "scheduler not available")
		return
	}

	taskID, err := ac.scheduler.RunNow(services.TriggerAPI)
	if err != nil {
		respondError(c, http.StatusConflict, "failed to start sync: "+err.Error())
		return
	}

	if taskID == "" {
		respondAccepted(c, "sync started in background", nil)
		return
	}
	respondAccepted(c, "sync enqueued", gin.H{"task_id": taskID})
}

func (ac *AutoSyncController) response() AutoSyncSettingsResponse {
	response := AutoSyncSettingsResponse{
		Config:  ac.settings.GetAutoSyncConfigInfo(),
		Status:  ac.settings.GetAutoSyncStatus(),
		Presets: schedulePresets,
	}
	if ac.scheduler != nil {
		response.NextRun = ac.scheduler.NextRunTime()
		response.IsRunning = ac.scheduler.IsRunning()
	}
	return response
}
