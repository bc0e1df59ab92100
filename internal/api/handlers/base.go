// Package handlers implements the REST API endpoint handlers.
//
// REST API Endpoints:
//
// System:
//   - GET /v2/health - Health check status
//   - GET /v2/status - Process and host statistics
//
// Zones:
//   - GET /v2/zones - List the caller's zones
//   - POST /v2/zones - Create a zone
//   - GET /v2/zones/:zone_id - Get zone details
//   - PATCH /v2/zones/:zone_id - Update a zone
//   - DELETE /v2/zones/:zone_id - Delete a zone
//   - POST /v2/zones/:zone_id/touch - Re-drive backend propagation
//   - POST /v2/zones/:zone_id/move - Move a zone to another pool (admin)
//   - GET /v2/zones/:zone_id/export - Zonefile text of the zone
//   - GET/POST .../recordsets - Recordset CRUD within a zone
//
// Import/export, reverse DNS and admin resources (pools, TLDs,
// blacklists, TSIG keys, quotas) follow the same pattern; see routes.go.
//
// Authentication:
//
// All endpoints except /health require the X-Auth-Tenant-ID header; a
// comma-separated X-Auth-Roles header containing "admin" grants the
// elevated privilege. An optional shared-secret X-API-Key can be
// enforced in front of everything.
//
// @title Designate DNS API
// @version 2.0
// @description Multi-tenant DNS-as-a-Service control plane.
//
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
//
// @host localhost:9001
// @BasePath /v2
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/central"
	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	svc       *central.Service
	logger    *slog.Logger
	startTime time.Time
}

// New creates a new Handler backed by the control-plane core.
func New(cfg *config.Config, svc *central.Service, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		svc:       svc,
		logger:    logger,
		startTime: time.Now(),
	}
}

// writeError maps the shared error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	kind, tagged := errs.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindForbidden:
		status = http.StatusForbidden
	case errs.KindOverQuota:
		status = http.StatusRequestEntityTooLarge
	case errs.KindTimeout:
		status = http.StatusGatewayTimeout
	case errs.KindBackend:
		status = http.StatusBadGateway
	}
	name := kind.String()
	if !tagged {
		name = "internal"
	}
	c.JSON(status, models.ErrorResponse{Kind: name, Error: err.Error()})
}

// listOpts reads marker/limit/sort query parameters.
func listOpts(c *gin.Context) storage.ListOpts {
	opts := storage.ListOpts{
		Marker:  c.Query("marker"),
		SortKey: c.Query("sort_key"),
		SortDir: c.Query("sort_dir"),
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	return opts
}
