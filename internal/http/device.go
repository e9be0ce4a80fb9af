package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DeviceController struct {
	devices DeviceFinder
}

func NewDeviceController(devices DeviceFinder) *DeviceController {
	return &DeviceController{devices: devices}
}

// GetDevice handles GET /api/device
func (dc *DeviceController) GetDevice(c *gin.Context) {
	dev := dc.devices.Scan()
	if dev == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no Kobo device connected", Code: CodeDeviceNotFound})
		return
	}
	c.JSON(http.StatusOK, dev)
}

// ListDevices handles GET /api/devices
// Lists every candidate volume, including ones whose database is unreadable.
func (dc *DeviceController) ListDevices(c *gin.Context) {
	devices := dc.devices.ScanAll()
	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}
