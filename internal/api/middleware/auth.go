// Package middleware provides HTTP middleware for the REST API,
// including API key authentication, tenant scoping and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Headers carrying the caller's identity. In a full deployment these are
// stamped by an authenticating proxy in front of the API.
const (
	HeaderAPIKey   = "X-API-Key"
	HeaderTenantID = "X-Auth-Tenant-ID"
	HeaderRoles    = "X-Auth-Roles"
)

const scopeKey = "tenant-scope"

// RequireAPIKey enforces a simple shared-secret API key.
// Clients must send `X-API-Key: <key>`.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderAPIKey)
		if expected == "" || got == expected {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Kind: "unauthorized", Error: "unauthorized"})
	}
}

// TenantScope extracts the caller's tenant and roles into a storage
// scope. Requests without a tenant id are rejected.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(HeaderTenantID)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Kind: "unauthorized", Error: "missing " + HeaderTenantID + " header",
			})
			return
		}

		sc := storage.Scope{TenantID: tenantID}
		for _, role := range strings.Split(c.GetHeader(HeaderRoles), ",") {
			if strings.TrimSpace(role) == "admin" {
				sc.Admin = true
			}
		}
		c.Set(scopeKey, sc)
		c.Next()
	}
}

// Scope returns the tenant scope stamped by TenantScope.
func Scope(c *gin.Context) storage.Scope {
	sc, _ := c.Get(scopeKey)
	scope, ok := sc.(storage.Scope)
	if !ok {
		return storage.Scope{}
	}
	return scope
}
