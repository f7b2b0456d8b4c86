package handlers

import (
	"errors"
	"net/http"
	"strings"

	"wear_relay/internal/permission"
	"wear_relay/internal/repository"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusPressed  = "pressed"
	statusLaunched = "launched"
	statusFront    = "brought_to_front"
	statusFinished = "finished"
	statusAnswered = "answered"

	errNoScreen        = "no screen is open"
	errNoPrompt        = "no pending permission prompt"
	errListNodes       = "failed to list nodes"
	errGetDataItem     = "failed to load data item"
	errDataItemMissing = "data item not found"
	errPathRequired    = "query parameter 'path' is required"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include the screen status if a screen is open.
func (h *Handler) respondWithStatusAndScreen(c *gin.Context, status string) {
	resp := gin.H{"status": status}
	if st, err := h.services.Screen.Status(); err == nil {
		resp["screen"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for answering the permission prompt.
type answerRequest struct {
	RequestCode int   `json:"request_code" binding:"required"`
	Granted     *bool `json:"granted" binding:"required"`
}

// PermissionAnswer is an exported model for Swagger docs of the answer payload.
type PermissionAnswer struct {
	// Request code of the pending prompt
	RequestCode int `json:"request_code" example:"66"`
	// Whether the user granted the permission
	Granted bool `json:"granted" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Screen status
// @Tags         screen
// @Produce      json
// @Success      200  {object}  service.ControllerStatus
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Screen.Status()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoScreen})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Press the start button
// @Description  Requests the body-sensor permission when missing, otherwise starts streaming.
// @Tags         screen
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, screen"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/screen/start [post]
// @Security     BearerAuth
func (h *Handler) pressStart(c *gin.Context) {
	if err := h.services.Screen.PressStart(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": errNoScreen})
		return
	}
	h.respondWithStatusAndScreen(c, statusPressed)
}

// @Summary      Launch the screen
// @Tags         screen
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, screen"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/screen/launch [post]
// @Security     BearerAuth
func (h *Handler) launchScreen(c *gin.Context) {
	st, created := h.services.Screen.LaunchScreen()
	status := statusLaunched
	if !created {
		status = statusFront
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "screen": st})
}

// @Summary      Close the screen
// @Tags         screen
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/screen/finish [post]
// @Security     BearerAuth
func (h *Handler) finishScreen(c *gin.Context) {
	if err := h.services.Screen.Finish(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": errNoScreen})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusFinished})
}

// @Summary      Permission state
// @Tags         permissions
// @Produce      json
// @Success      200  {object}  permission.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/permissions [get]
// @Security     BearerAuth
func (h *Handler) getPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Permissions.Snapshot())
}

// @Summary      Answer the permission prompt
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        body  body      PermissionAnswer  true  "Answer payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/permissions/answer [post]
// @Security     BearerAuth
func (h *Handler) answerPermission(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Permissions.Answer(req.RequestCode, *req.Granted); err != nil {
		if errors.Is(err, permission.ErrNoPendingPrompt) {
			c.JSON(http.StatusConflict, gin.H{"error": errNoPrompt})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, err.Error(), "permission_answer_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAnswered, "permissions": h.services.Permissions.Snapshot()})
}

// @Summary      Connected nodes
// @Tags         nodes
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, nodes"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/nodes [get]
// @Security     BearerAuth
func (h *Handler) listNodes(c *gin.Context) {
	nodes, err := h.services.Nodes.ConnectedNodes(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListNodes, "nodes_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(nodes), "nodes": nodes})
}

// @Summary      Current data item
// @Tags         data
// @Produce      json
// @Param        path  query     string  true  "Data item path"  example(/heart-rate)
// @Success      200   {object}  models.DataItem
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/data-items [get]
// @Security     BearerAuth
func (h *Handler) getDataItem(c *gin.Context) {
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errPathRequired})
		return
	}
	item, err := h.services.DataItems.Get(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, repository.ErrDataItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errDataItemMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetDataItem, "data_item_get_failed", err, "path", path)
		return
	}
	c.JSON(http.StatusOK, item)
}
