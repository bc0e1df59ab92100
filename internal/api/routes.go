package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openstack/designate-sub004/internal/api/docs"
	"github.com/openstack/designate-sub004/internal/api/handlers"
	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/config"
)

// RegisterRoutes wires all API endpoints onto the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v2 := r.Group("/v2")
	if cfg.API.APIKey != "" {
		v2.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	v2.GET("/health", h.Health)

	authed := v2.Group("")
	authed.Use(middleware.TenantScope())

	authed.GET("/status", h.Status)

	authed.GET("/zones", h.ListZones)
	authed.POST("/zones", h.CreateZone)
	// Static segments must be registered before the :zone_id wildcard
	// sibling would shadow them.
	authed.POST("/zones/tasks/imports", h.CreateZoneImport)
	authed.GET("/zones/tasks/:task_id", h.GetZoneTask)
	authed.GET("/zones/:zone_id", h.GetZone)
	authed.PATCH("/zones/:zone_id", h.UpdateZone)
	authed.DELETE("/zones/:zone_id", h.DeleteZone)
	authed.POST("/zones/:zone_id/touch", h.TouchZone)
	authed.POST("/zones/:zone_id/move", h.MoveZone)
	authed.GET("/zones/:zone_id/export", h.ExportZoneFile)
	authed.POST("/zones/:zone_id/tasks/export", h.CreateZoneExport)

	authed.GET("/zones/:zone_id/recordsets", h.ListRecordSets)
	authed.POST("/zones/:zone_id/recordsets", h.CreateRecordSet)
	authed.GET("/zones/:zone_id/recordsets/:recordset_id", h.GetRecordSet)
	authed.PUT("/zones/:zone_id/recordsets/:recordset_id", h.UpdateRecordSet)
	authed.DELETE("/zones/:zone_id/recordsets/:recordset_id", h.DeleteRecordSet)

	authed.GET("/reverse/floatingips", h.ListFloatingIPPTRs)
	authed.PATCH("/reverse/floatingips/:region/:fip_id", h.SetFloatingIPPTR)

	authed.GET("/pools", h.ListPools)
	authed.POST("/pools", h.CreatePool)
	authed.GET("/pools/:pool_id", h.GetPool)
	authed.PUT("/pools/:pool_id", h.UpdatePool)
	authed.DELETE("/pools/:pool_id", h.DeletePool)

	authed.GET("/tlds", h.ListTLDs)
	authed.POST("/tlds", h.CreateTLD)
	authed.DELETE("/tlds/:tld_id", h.DeleteTLD)

	authed.GET("/blacklists", h.ListBlacklists)
	authed.POST("/blacklists", h.CreateBlacklist)
	authed.PATCH("/blacklists/:blacklist_id", h.UpdateBlacklist)
	authed.DELETE("/blacklists/:blacklist_id", h.DeleteBlacklist)

	authed.GET("/tsigkeys", h.ListTsigKeys)
	authed.POST("/tsigkeys", h.CreateTsigKey)
	authed.GET("/tsigkeys/:tsigkey_id", h.GetTsigKey)
	authed.PATCH("/tsigkeys/:tsigkey_id", h.UpdateTsigKey)
	authed.DELETE("/tsigkeys/:tsigkey_id", h.DeleteTsigKey)

	authed.GET("/quotas/:tenant_id", h.GetQuotas)
	authed.PATCH("/quotas/:tenant_id", h.SetQuotas)
	authed.DELETE("/quotas/:tenant_id", h.ResetQuotas)
}
