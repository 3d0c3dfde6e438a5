package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

const (
	SessionSecretHeader = "X-Session-Secret"

	ctxSession  = "session"
	ctxUserID   = "userID"
	ctxBranchID = "branchID"
	ctxRole     = "role"
)

// GuestAuth authenticates the :session_id path parameter with the
// X-Session-Secret header and stores the session in the context.
func GuestAuth(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(SessionSecretHeader)
		session, err := sessions.Authenticate(c.Request.Context(), c.Param("session_id"), secret)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Set(ctxSession, session)
		c.Next()
	}
}

// CurrentSession returns the session stored by GuestAuth.
func CurrentSession(c *gin.Context) *models.GuestSession {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	session, _ := v.(*models.GuestSession)
	return session
}

// AuthMiddleware validates a staff bearer token.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, utils.ErrUnauthorized("authorization header missing"))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, utils.ErrUnauthorized("invalid token format"))
			return
		}

		authenticate(c, secret, strings.TrimPrefix(authHeader, "Bearer "))
	}
}

// WebSocketAuthMiddleware reads the staff token from the query string, since
// browsers cannot set headers on a websocket handshake.
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondError(c, utils.ErrUnauthorized("token missing"))
			return
		}
		authenticate(c, secret, token)
	}
}

func authenticate(c *gin.Context, secret []byte, token string) {
	claims, err := utils.ParseToken(secret, token)
	if err != nil || claims.UserID == 0 || claims.BranchID == 0 {
		utils.RespondError(c, utils.ErrUnauthorized("invalid or expired token"))
		return
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxBranchID, claims.BranchID)
	c.Set(ctxRole, claims.Role)
	c.Next()
}

// CurrentStaff returns the staff identity stored by AuthMiddleware.
func CurrentStaff(c *gin.Context) services.Staff {
	return services.Staff{
		UserID:   c.GetUint(ctxUserID),
		BranchID: c.GetUint(ctxBranchID),
		Role:     c.GetString(ctxRole),
	}
}
