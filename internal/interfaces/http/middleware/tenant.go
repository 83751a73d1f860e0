// internal/interfaces/http/middleware/tenant.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHeader carries the tenant identifier on every API request
const TenantHeader = "X-Tenant-ID"

// Tenant resolves the tenant from the request header and stores it in
// the request context. All business endpoints are tenant-scoped.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "X-Tenant-ID header is required",
			})
			c.Abort()
			return
		}

		if _, err := uuid.Parse(tenantID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "X-Tenant-ID must be a valid UUID",
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID extracts the tenant identifier from the gin context
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get("tenant_id"); exists {
		if id, ok := tenantID.(string); ok {
			return id
		}
	}
	return ""
}
