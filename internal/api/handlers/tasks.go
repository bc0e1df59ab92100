package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
)

// ExportZoneFile godoc
// @Summary Export a zone as zonefile text
// @Tags tasks
// @Produce plain
// @Param zone_id path string true "Zone id"
// @Success 200 {string} string "Zonefile text"
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/export [get]
func (h *Handler) ExportZoneFile(c *gin.Context) {
	text, err := h.svc.RenderZone(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/dns", []byte(text))
}

// CreateZoneExport godoc
// @Summary Start a zone export task
// @Tags tasks
// @Produce json
// @Param zone_id path string true "Zone id"
// @Success 202 {object} models.ZoneTask
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/tasks/export [post]
func (h *Handler) CreateZoneExport(c *gin.Context) {
	task, err := h.svc.ExportZone(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneTaskFromStorage(task))
}

// CreateZoneImport godoc
// @Summary Import a zone from zonefile text
// @Tags tasks
// @Accept json
// @Produce json
// @Param import body models.ZoneImportRequest true "Zonefile text"
// @Success 202 {object} models.ZoneTask
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/tasks/imports [post]
func (h *Handler) CreateZoneImport(c *gin.Context) {
	var req models.ZoneImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	task, err := h.svc.ImportZone(c.Request.Context(), middleware.Scope(c), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneTaskFromStorage(task))
}

// GetZoneTask godoc
// @Summary Get import/export task status
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task id"
// @Success 200 {object} models.ZoneTask
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/tasks/{task_id} [get]
func (h *Handler) GetZoneTask(c *gin.Context) {
	task, err := h.svc.GetZoneTask(c.Request.Context(), middleware.Scope(c), c.Param("task_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ZoneTaskFromStorage(task))
}
