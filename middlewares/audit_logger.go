package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
)

// AuditLogger records the outcome of a money-moving request, keyed by the
// named path parameter.
func AuditLogger(action, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param(param)

		c.Next()

		entry := utils.InfoLogger.WithField("action", action).WithField(param, ref)
		if staff := c.GetUint(ctxUserID); staff != 0 {
			entry = entry.WithField("staff_id", staff)
		}
		if session := CurrentSession(c); session != nil {
			entry = entry.WithField("session_id", session.ID)
		}
		if c.Writer.Status() < 400 {
			entry.Info("audit: succeeded")
		} else {
			entry.WithField("status", c.Writer.Status()).Warn("audit: rejected")
		}
	}
}
