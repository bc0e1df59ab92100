package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/central"
	"github.com/openstack/designate-sub004/internal/storage"
)

// recordSetView builds the API form of a recordset. Status and action
// are aggregated from the member records; records already marked for
// deletion are not shown.
func recordSetView(rs *storage.RecordSet) models.RecordSet {
	data := make([]string, 0, len(rs.Records))
	for _, r := range rs.Records {
		if r.Action != storage.ActionDelete {
			data = append(data, r.Data)
		}
	}
	return models.RecordSet{
		ID:        rs.ID,
		ZoneID:    rs.ZoneID,
		Name:      rs.Name,
		Type:      rs.Type,
		TTL:       rs.TTL,
		Status:    string(central.AggregateStatus(rs.Records)),
		Action:    string(central.AggregateAction(rs.Records)),
		Managed:   rs.Managed,
		Records:   data,
		Version:   rs.Version,
		CreatedAt: rs.CreatedAt,
		UpdatedAt: rs.UpdatedAt,
	}
}

// ListRecordSets godoc
// @Summary List recordsets in a zone
// @Tags recordsets
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param name query string false "Filter by name"
// @Param type query string false "Filter by type"
// @Success 200 {object} models.RecordSetListResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/recordsets [get]
func (h *Handler) ListRecordSets(c *gin.Context) {
	filter := storage.RecordSetFilter{
		Name: c.Query("name"),
		Type: c.Query("type"),
	}
	sets, err := h.svc.FindRecordSets(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), filter, listOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]models.RecordSet, 0, len(sets))
	for i := range sets {
		out = append(out, recordSetView(&sets[i]))
	}
	resp := models.RecordSetListResponse{RecordSets: out, Meta: models.ListMeta{Count: len(out)}}
	if len(out) > 0 {
		resp.Meta.Marker = out[len(out)-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

// CreateRecordSet godoc
// @Summary Create a recordset
// @Tags recordsets
// @Accept json
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param recordset body models.RecordSetCreateRequest true "Recordset to create"
// @Success 202 {object} models.RecordSet
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/recordsets [post]
func (h *Handler) CreateRecordSet(c *gin.Context) {
	var req models.RecordSetCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	rs, err := h.svc.CreateRecordSet(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), central.CreateRecordSetInput{
		Name:    req.Name,
		Type:    req.Type,
		TTL:     req.TTL,
		Records: req.Records,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, recordSetView(rs))
}

// GetRecordSet godoc
// @Summary Get recordset details
// @Tags recordsets
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param recordset_id path string true "Recordset id"
// @Success 200 {object} models.RecordSet
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/recordsets/{recordset_id} [get]
func (h *Handler) GetRecordSet(c *gin.Context) {
	rs, err := h.svc.GetRecordSet(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), c.Param("recordset_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordSetView(rs))
}

// UpdateRecordSet godoc
// @Summary Update a recordset
// @Description Replaces the record data and TTL; the name and type are immutable
// @Tags recordsets
// @Accept json
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param recordset_id path string true "Recordset id"
// @Param recordset body models.RecordSetUpdateRequest true "Fields to change"
// @Success 202 {object} models.RecordSet
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/recordsets/{recordset_id} [put]
func (h *Handler) UpdateRecordSet(c *gin.Context) {
	var req models.RecordSetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	rs, err := h.svc.UpdateRecordSet(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), c.Param("recordset_id"), central.UpdateRecordSetInput{
		TTL:     req.TTL,
		Records: req.Records,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, recordSetView(rs))
}

// DeleteRecordSet godoc
// @Summary Delete a recordset
// @Tags recordsets
// @Produce json
// @Param zone_id path string true "Zone id"
// @Param recordset_id path string true "Recordset id"
// @Success 202 {object} models.RecordSet
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zones/{zone_id}/recordsets/{recordset_id} [delete]
func (h *Handler) DeleteRecordSet(c *gin.Context) {
	rs, err := h.svc.DeleteRecordSet(c.Request.Context(), middleware.Scope(c), c.Param("zone_id"), c.Param("recordset_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, recordSetView(rs))
}
