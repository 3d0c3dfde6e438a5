package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
)

// RoleCheck admits staff whose role is one of roles. Admins are always admitted.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ctxRole)
		if !exists {
			utils.RespondError(c, utils.ErrUnauthorized("unauthorized"))
			return
		}

		if userRole == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		utils.RespondError(c, utils.ErrForbidden("%v access required", roles))
	}
}
