package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/storage"
)

// ListPools godoc
// @Summary List backend pools
// @Tags pools
// @Produce json
// @Success 200 {array} models.Pool
// @Security ApiKeyAuth
// @Router /pools [get]
func (h *Handler) ListPools(c *gin.Context) {
	pools, err := h.svc.FindPools(c.Request.Context(), middleware.Scope(c), listOpts(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.Pool, 0, len(pools))
	for i := range pools {
		out = append(out, models.PoolFromStorage(&pools[i]))
	}
	c.JSON(http.StatusOK, out)
}

// CreatePool godoc
// @Summary Create a backend pool
// @Tags pools
// @Accept json
// @Produce json
// @Param pool body models.Pool true "Pool to create"
// @Success 201 {object} models.Pool
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /pools [post]
func (h *Handler) CreatePool(c *gin.Context) {
	var req models.Pool
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	pool, err := h.svc.CreatePool(c.Request.Context(), middleware.Scope(c), req.ToStorage())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PoolFromStorage(pool))
}

// GetPool godoc
// @Summary Get pool details
// @Tags pools
// @Produce json
// @Param pool_id path string true "Pool id"
// @Success 200 {object} models.Pool
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /pools/{pool_id} [get]
func (h *Handler) GetPool(c *gin.Context) {
	pool, err := h.svc.GetPool(c.Request.Context(), middleware.Scope(c), c.Param("pool_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PoolFromStorage(pool))
}

// UpdatePool godoc
// @Summary Update a backend pool
// @Description Nameserver changes fan out NS reconciliation to every zone on the pool
// @Tags pools
// @Accept json
// @Produce json
// @Param pool_id path string true "Pool id"
// @Param pool body models.Pool true "New pool definition"
// @Success 200 {object} models.Pool
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /pools/{pool_id} [put]
func (h *Handler) UpdatePool(c *gin.Context) {
	var req models.Pool
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	p := req.ToStorage()
	p.ID = c.Param("pool_id")
	pool, err := h.svc.UpdatePool(c.Request.Context(), middleware.Scope(c), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PoolFromStorage(pool))
}

// DeletePool godoc
// @Summary Delete a backend pool
// @Tags pools
// @Produce json
// @Param pool_id path string true "Pool id"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /pools/{pool_id} [delete]
func (h *Handler) DeletePool(c *gin.Context) {
	if err := h.svc.DeletePool(c.Request.Context(), middleware.Scope(c), c.Param("pool_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTLDs godoc
// @Summary List allowed top-level domains
// @Tags tlds
// @Produce json
// @Success 200 {array} models.TLD
// @Security ApiKeyAuth
// @Router /tlds [get]
func (h *Handler) ListTLDs(c *gin.Context) {
	tlds, err := h.svc.FindTLDs(c.Request.Context(), middleware.Scope(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.TLD, 0, len(tlds))
	for _, t := range tlds {
		out = append(out, models.TLD{ID: t.ID, Name: t.Name})
	}
	c.JSON(http.StatusOK, out)
}

// CreateTLD godoc
// @Summary Allow a top-level domain
// @Tags tlds
// @Accept json
// @Produce json
// @Param tld body models.TLD true "TLD to allow"
// @Success 201 {object} models.TLD
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tlds [post]
func (h *Handler) CreateTLD(c *gin.Context) {
	var req models.TLD
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	tld, err := h.svc.CreateTLD(c.Request.Context(), middleware.Scope(c), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.TLD{ID: tld.ID, Name: tld.Name})
}

// DeleteTLD godoc
// @Summary Remove an allowed top-level domain
// @Tags tlds
// @Produce json
// @Param tld_id path string true "TLD id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tlds/{tld_id} [delete]
func (h *Handler) DeleteTLD(c *gin.Context) {
	if err := h.svc.DeleteTLD(c.Request.Context(), middleware.Scope(c), c.Param("tld_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBlacklists godoc
// @Summary List forbidden name patterns
// @Tags blacklists
// @Produce json
// @Success 200 {array} models.Blacklist
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /blacklists [get]
func (h *Handler) ListBlacklists(c *gin.Context) {
	items, err := h.svc.FindBlacklists(c.Request.Context(), middleware.Scope(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.Blacklist, 0, len(items))
	for _, b := range items {
		out = append(out, models.Blacklist{ID: b.ID, Pattern: b.Pattern, Description: b.Description})
	}
	c.JSON(http.StatusOK, out)
}

// CreateBlacklist godoc
// @Summary Forbid a name pattern
// @Tags blacklists
// @Accept json
// @Produce json
// @Param blacklist body models.Blacklist true "Pattern to forbid"
// @Success 201 {object} models.Blacklist
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /blacklists [post]
func (h *Handler) CreateBlacklist(c *gin.Context) {
	var req models.Blacklist
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	b, err := h.svc.CreateBlacklist(c.Request.Context(), middleware.Scope(c), &storage.Blacklist{
		Pattern:     req.Pattern,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.Blacklist{ID: b.ID, Pattern: b.Pattern, Description: b.Description})
}

// UpdateBlacklist godoc
// @Summary Update a forbidden name pattern
// @Tags blacklists
// @Accept json
// @Produce json
// @Param blacklist_id path string true "Blacklist id"
// @Param blacklist body models.Blacklist true "New pattern"
// @Success 200 {object} models.Blacklist
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /blacklists/{blacklist_id} [patch]
func (h *Handler) UpdateBlacklist(c *gin.Context) {
	var req models.Blacklist
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	b, err := h.svc.UpdateBlacklist(c.Request.Context(), middleware.Scope(c), &storage.Blacklist{
		ID:          c.Param("blacklist_id"),
		Pattern:     req.Pattern,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Blacklist{ID: b.ID, Pattern: b.Pattern, Description: b.Description})
}

// DeleteBlacklist godoc
// @Summary Remove a forbidden name pattern
// @Tags blacklists
// @Produce json
// @Param blacklist_id path string true "Blacklist id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /blacklists/{blacklist_id} [delete]
func (h *Handler) DeleteBlacklist(c *gin.Context) {
	if err := h.svc.DeleteBlacklist(c.Request.Context(), middleware.Scope(c), c.Param("blacklist_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTsigKeys godoc
// @Summary List transfer-signing keys
// @Tags tsigkeys
// @Produce json
// @Success 200 {array} models.TsigKey
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tsigkeys [get]
func (h *Handler) ListTsigKeys(c *gin.Context) {
	keys, err := h.svc.FindTsigKeys(c.Request.Context(), middleware.Scope(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.TsigKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, tsigKeyView(&k))
	}
	c.JSON(http.StatusOK, out)
}

// CreateTsigKey godoc
// @Summary Create a transfer-signing key
// @Tags tsigkeys
// @Accept json
// @Produce json
// @Param tsigkey body models.TsigKey true "Key to create"
// @Success 201 {object} models.TsigKey
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tsigkeys [post]
func (h *Handler) CreateTsigKey(c *gin.Context) {
	var req models.TsigKey
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	k, err := h.svc.CreateTsigKey(c.Request.Context(), middleware.Scope(c), tsigKeyFromModel(&req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tsigKeyView(k))
}

// GetTsigKey godoc
// @Summary Get transfer-signing key details
// @Tags tsigkeys
// @Produce json
// @Param tsigkey_id path string true "Key id"
// @Success 200 {object} models.TsigKey
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tsigkeys/{tsigkey_id} [get]
func (h *Handler) GetTsigKey(c *gin.Context) {
	k, err := h.svc.GetTsigKey(c.Request.Context(), middleware.Scope(c), c.Param("tsigkey_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tsigKeyView(k))
}

// UpdateTsigKey godoc
// @Summary Update a transfer-signing key
// @Tags tsigkeys
// @Accept json
// @Produce json
// @Param tsigkey_id path string true "Key id"
// @Param tsigkey body models.TsigKey true "New key definition"
// @Success 200 {object} models.TsigKey
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tsigkeys/{tsigkey_id} [patch]
func (h *Handler) UpdateTsigKey(c *gin.Context) {
	var req models.TsigKey
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}
	in := tsigKeyFromModel(&req)
	in.ID = c.Param("tsigkey_id")
	k, err := h.svc.UpdateTsigKey(c.Request.Context(), middleware.Scope(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tsigKeyView(k))
}

// DeleteTsigKey godoc
// @Summary Delete a transfer-signing key
// @Tags tsigkeys
// @Produce json
// @Param tsigkey_id path string true "Key id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /tsigkeys/{tsigkey_id} [delete]
func (h *Handler) DeleteTsigKey(c *gin.Context) {
	if err := h.svc.DeleteTsigKey(c.Request.Context(), middleware.Scope(c), c.Param("tsigkey_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func tsigKeyView(k *storage.TsigKey) models.TsigKey {
	return models.TsigKey{
		ID:         k.ID,
		Name:       k.Name,
		Algorithm:  k.Algorithm,
		Secret:     k.Secret,
		Scope:      k.Scope,
		ResourceID: k.ResourceID,
	}
}

func tsigKeyFromModel(k *models.TsigKey) *storage.TsigKey {
	return &storage.TsigKey{
		Name:       k.Name,
		Algorithm:  k.Algorithm,
		Secret:     k.Secret,
		Scope:      k.Scope,
		ResourceID: k.ResourceID,
	}
}

// GetQuotas godoc
// @Summary Get effective quotas for a tenant
// @Tags quotas
// @Produce json
// @Param tenant_id path string true "Tenant id"
// @Success 200 {object} map[string]int
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /quotas/{tenant_id} [get]
func (h *Handler) GetQuotas(c *gin.Context) {
	quotas, err := h.svc.GetQuotas(c.Request.Context(), middleware.Scope(c), c.Param("tenant_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotas)
}

// SetQuotas godoc
// @Summary Override quotas for a tenant
// @Tags quotas
// @Accept json
// @Produce json
// @Param tenant_id path string true "Tenant id"
// @Param quotas body models.QuotaUpdateRequest true "Limits to override"
// @Success 200 {object} map[string]int
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /quotas/{tenant_id} [patch]
func (h *Handler) SetQuotas(c *gin.Context) {
	var req models.QuotaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Kind: "validation", Error: err.Error()})
		return
	}

	sc := middleware.Scope(c)
	tenantID := c.Param("tenant_id")
	updates := map[string]*int{
		quota.ResourceZones:          req.Zones,
		quota.ResourceZoneRecordsets: req.ZoneRecordsets,
		quota.ResourceZoneRecords:    req.ZoneRecords,
	}
	for resource, limit := range updates {
		if limit == nil {
			continue
		}
		if err := h.svc.SetQuota(c.Request.Context(), sc, tenantID, resource, *limit); err != nil {
			writeError(c, err)
			return
		}
	}

	quotas, err := h.svc.GetQuotas(c.Request.Context(), sc, tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotas)
}

// ResetQuotas godoc
// @Summary Remove quota overrides for a tenant
// @Tags quotas
// @Produce json
// @Param tenant_id path string true "Tenant id"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /quotas/{tenant_id} [delete]
func (h *Handler) ResetQuotas(c *gin.Context) {
	if err := h.svc.ResetQuotas(c.Request.Context(), middleware.Scope(c), c.Param("tenant_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
