package handlers

import (
	"net/http"

	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetState     = "failed to load state"
	errSaveSettings = "failed to save settings"
)

// internalError logs err with kv under event and answers 500 with msg only.
func (h *Handler) internalError(c *gin.Context, msg, event string, err error, kv ...any) {
	if h.log != nil {
		h.log.Errorw(event, append([]any{"err", err}, kv...)...)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// ToolPathRequest is the payload for changing the ectool location.
type ToolPathRequest struct {
	// Absolute path to ectool; empty pauses fan control
	ToolPath string `json:"tool_path" example:"C:\\Program Files\\crosec\\ectool.exe"`
}

// IntervalRequest is the payload for changing the sampling interval.
type IntervalRequest struct {
	// Seconds between ticks, 2..15
	Interval *int `json:"interval" binding:"required" example:"5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Get fan controller state
// @Description  Latest tick: status, raw and smoothed temperature, target and commanded duty
// @Tags         fan
// @Produce      json
// @Success      200  {object}  models.FanState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/fan/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	if st, err := h.services.GetState(c.Request.Context()); err != nil {
		h.internalError(c, errGetState, "fan_get_state_failed", err)
	} else {
		c.JSON(http.StatusOK, st)
	}
}

// @Summary      Get settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  service.SettingsView
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Get(c.Request.Context()))
}

// @Summary      Set ectool path
// @Description  Takes effect on the next tick. A path that does not exist is stored and reported as tool_found=false.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      ToolPathRequest  true  "Tool path"
// @Success      200   {object}  service.SettingsView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings/tool-path [put]
// @Security     BearerAuth
func (h *Handler) setToolPath(c *gin.Context) {
	var req ToolPathRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	view, err := h.services.SetToolPath(c.Request.Context(), req.ToolPath)
	if err != nil {
		h.internalError(c, errSaveSettings, "settings_tool_path_failed", err, "path", req.ToolPath)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Set sampling interval
// @Description  Seconds between ticks. Values outside 2..15 are rejected and the current value is kept.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      IntervalRequest  true  "Interval"
// @Success      200   {object}  service.SettingsView
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings/interval [put]
// @Security     BearerAuth
func (h *Handler) setInterval(c *gin.Context) {
	var req IntervalRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	view, err := h.services.SetInterval(c.Request.Context(), *req.Interval)
	if err != nil {
		if service.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        err.Error(),
				"min_interval": view.MinInterval,
				"max_interval": view.MaxInterval,
				"interval":     view.IntervalSeconds,
			})
			return
		}
		h.internalError(c, errSaveSettings, "settings_interval_failed", err, "interval", *req.Interval)
		return
	}
	c.JSON(http.StatusOK, view)
}
