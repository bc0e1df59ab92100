package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/central"
)

// There is no compute service to enumerate floating IPs from, so the
// caller reports its inventory: repeated address/id/region query
// parameters for listing, and the address in the PATCH body.

// ListFloatingIPPTRs godoc
// @Summary List PTR records for the caller's floating IPs
// @Description Pass each held address as a repeated address query parameter, with optional parallel id and region parameters
// @Tags reverse
// @Produce json
// @Param address query []string true "Floating IP addresses" collectionFormat(multi)
// @Success 200 {array} models.FloatingIPPTR
// @Security ApiKeyAuth
// @Router /reverse/floatingips [get]
func (h *Handler) ListFloatingIPPTRs(c *gin.Context) {
	addresses := c.QueryArray("address")
	ids := c.QueryArray("id")
	regions := c.QueryArray("region")

	fips := make([]central.FloatingIP, 0, len(addresses))
	for i, addr := range addresses {
		fip := central.FloatingIP{ID: addr, Address: addr}
		if i < len(ids) {
			fip.ID = ids[i]
		}
		if i < len(regions) {
			fip.Region = regions[i]
		}
		fips = append(fips, fip)
	}

	ptrs, err := h.svc.ListFloatingIPPTRs(c.Request.Context(), middleware.Scope(c), fips)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.FloatingIPPTR, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, floatingIPView(p))
	}
	c.JSON(http.StatusOK, out)
}

// SetFloatingIPPTR godoc
// @Summary Set or unset the PTR record of a floating IP
// @Description An empty ptrdname removes the record
// @Tags reverse
// @Accept json
// @Produce json
// @Param region path string true "Region"
// @Param fip_id path string true "Floating IP id"
// @Param ptr body models.FloatingIPPTRRequest true "Address and desired PTR target"
// @Success 202 {object} models.FloatingIPPTR
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /reverse/floatingips/{region}/{fip_id} [patch]
func (h *Handler) SetFloatingIPPTR(c *gin.Context) {
	var req models.FloatingIPPTRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	fip := central.FloatingIP{
		ID:      c.Param("fip_id"),
		Address: req.Address,
		Region:  c.Param("region"),
	}
	ptr, err := h.svc.SetFloatingIPPTR(c.Request.Context(), middleware.Scope(c), fip, req.PTRDName, req.TTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, floatingIPView(*ptr))
}

func floatingIPView(p central.FloatingIPPTR) models.FloatingIPPTR {
	return models.FloatingIPPTR{
		ID:       p.ID,
		Address:  p.Address,
		Region:   p.Region,
		PTRDName: p.PTRDName,
		TTL:      p.TTL,
	}
}
