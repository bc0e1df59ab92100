package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/central"
	"github.com/openstack/designate-sub004/internal/storage"
)

// ListZones godoc
// @Summary List zones
// @Description Returns the caller's zones, filterable by name and status
// @Tags zones
// @Produce json
// @Param limit query int false "Page size"
// @Param marker query string false "Pagination marker"
// @Success 200 {object} models.ZoneListResponse
// @Security ApiKeyAuth
// @Router /zones [get]
func (h *Handler) ListZones(c *gin.Context) {
	sc := middleware.Scope(c)
	filter := storage.ZoneFilter{
		Name:   c.Query("name"),
		Status: storage.Status(c.Query("status")),
		Type:   storage.ZoneType(c.Query("type")),
	}

	zones, err := h.svc.FindZones(c.Request.Context(), sc, filter, listOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]models.Zone, 0, len(zones))
	for i := range zones {
		out = append(out, models.ZoneFromStorage(&zones[i]))
	}
	resp := models.ZoneListResponse{Zones: out, Meta: models.ListMeta{Count: len(out)}}
	if len(out) > 0 {
		resp.Meta.Marker = out[len(out)-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

// CreateZone godoc
// @Summary Create a zone
// @Description Creates a zone; it is returned PENDING and becomes ACTIVE once all backends converge
// @Tags zones
// @Accept json
// @Produce json
// @Param zone body models.ZoneCreateRequest true "Zone to create"
// @Success 202 {object} models.Zone
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones [post]
func (h *Handler) CreateZone(c *gin.Context) {
	var req models.ZoneCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	zone, err := h.svc.CreateZone(c.Request.Context(), middleware.Scope(c), central.CreateZoneInput{
		Name:    req.Name,
		Email:   req.Email,
		TTL:     req.TTL,
		Type:    storage.ZoneType(req.Type),
		Masters: req.Masters,
		PoolID:  req.PoolID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneFromStorage(zone))
}

// GetZone godoc
// @Summary Get zone details
// @Tags zones
// @Produce json
// @Param zone_id path string true "Zone id"
// @Success 200 {object} models.Zone
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id} [get]
func (h *Handler) GetZone(c *gin.Context) {
	zone, err := h.svc.GetZone(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ZoneFromStorage(zone))
}

// UpdateZone godoc
// @Summary Update a zone
// @Description Applies mutable-field changes; name and type are immutable
// @Tags zones
// @Accept json
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param zone body models.ZoneUpdateRequest true "Fields to change"
// @Success 202 {object} models.Zone
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id} [patch]
func (h *Handler) UpdateZone(c *gin.Context) {
	var req models.ZoneUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	zone, err := h.svc.UpdateZone(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), central.UpdateZoneInput{
		Email:   req.Email,
		TTL:     req.TTL,
		Masters: req.Masters,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneFromStorage(zone))
}

// DeleteZone godoc
// @Summary Delete a zone
// @Description Marks the zone for deletion; the row disappears once all backends acknowledge
// @Tags zones
// @Produce json
// @Param zone_id path string true "Zone id"
// @Success 202 {object} models.Zone
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id} [delete]
func (h *Handler) DeleteZone(c *gin.Context) {
	zone, err := h.svc.DeleteZone(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneFromStorage(zone))
}

// TouchZone godoc
// @Summary Re-drive backend propagation
// @Description Bumps the serial and pushes the zone to every backend again
// @Tags zones
// @Produce json
// @Param zone_id path string true "Zone id"
// @Success 202 {object} models.Zone
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/touch [post]
func (h *Handler) TouchZone(c *gin.Context) {
	zone, err := h.svc.TouchZone(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneFromStorage(zone))
}

// MoveZone godoc
// @Summary Move a zone to another pool
// @Tags zones
// @Accept json
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param move body models.ZoneMoveRequest true "Target pool"
// @Success 202 {object} models.Zone
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/move [post]
func (h *Handler) MoveZone(c *gin.Context) {
	var req models.ZoneMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	zone, err := h.svc.MoveZonePool(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), req.PoolID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.ZoneFromStorage(zone))
}
