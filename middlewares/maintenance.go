package middlewares

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
)

const MaintenanceKeyHeader = "X-Maintenance-Key"

// MaintenanceKey guards maintenance endpoints with a shared key. An empty
// configured key disables them.
func MaintenanceKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader(MaintenanceKeyHeader)
		if key == "" || supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			utils.RespondError(c, utils.ErrForbidden("invalid maintenance key"))
			return
		}
		c.Next()
	}
}
