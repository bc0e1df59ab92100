package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/backend"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Status godoc
// @Summary Process, host and backend statistics
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /status [get]
func (h *Handler) Status(c *gin.Context) {
	uptime := time.Since(h.startTime)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(ms.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
	}

	if info, err := host.Info(); err == nil {
		hs := &models.HostStats{
			Hostname:      info.Hostname,
			Platform:      info.Platform,
			UptimeSeconds: info.Uptime,
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			hs.MemoryTotalMB = float64(vm.Total) / 1024 / 1024
			hs.MemoryUsedPct = vm.UsedPercent
		}
		resp.Host = hs
	}

	resp.Backends = h.backendStatuses(c)
	c.JSON(http.StatusOK, resp)
}

// backendStatuses pings every pool target. Failures are reported, not
// fatal.
func (h *Handler) backendStatuses(c *gin.Context) []models.BackendStatus {
	pools, err := h.svc.FindPools(c.Request.Context(), middleware.Scope(c), storage.ListOpts{})
	if err != nil {
		return nil
	}

	var out []models.BackendStatus
	for _, pool := range pools {
		for _, target := range pool.Targets {
			bs := models.BackendStatus{
				PoolID:   pool.ID,
				TargetID: target.ID,
				Type:     target.Type,
				Status:   "up",
			}
			b, err := backend.New(target, h.logger)
			if err == nil {
				err = b.Ping(c.Request.Context())
			}
			if err != nil {
				bs.Status = "down"
				bs.Error = err.Error()
			}
			out = append(out, bs)
		}
	}
	return out
}
