package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

type SessionController struct {
	Sessions *services.SessionService
	Parties  *services.PartyService
}

func NewSessionController(sessions *services.SessionService, parties *services.PartyService) *SessionController {
	return &SessionController{Sessions: sessions, Parties: parties}
}

// StartSession -> guest scanned the table code
func (sc *SessionController) StartSession(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		Locale string `json:"locale"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}

	session, secret, err := sc.Sessions.Start(c.Request.Context(), tableID, req.Locale)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session started", gin.H{
		"session": session,
		"secret":  secret,
	})
}

// GetSession returns the session with its live party, if any.
func (sc *SessionController) GetSession(c *gin.Context) {
	session := middlewares.CurrentSession(c)
	party, err := sc.Parties.ResolveActive(c.Request.Context(), session)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session", gin.H{
		"session": session,
		"party":   party,
	})
}
