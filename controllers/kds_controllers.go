package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/notify"
	"github.com/yeremiapane/tableside/utils"
)

type FeedController struct {
	Hub      *notify.Hub
	upgrader websocket.Upgrader
}

// NewFeedController accepts websocket handshakes from allowedOrigin, or from
// any origin when allowedOrigin is "*".
func NewFeedController(hub *notify.Hub, allowedOrigin string) *FeedController {
	return &FeedController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// StaffFeed -> websocket stream of the staff member's branch events
func (fc *FeedController) StaffFeed(c *gin.Context) {
	staff := middlewares.CurrentStaff(c)

	ws, err := fc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	fc.Hub.Register(ws, staff.BranchID, staff.Role)
	utils.InfoLogger.Infof("Staff %d subscribed to branch %d events", staff.UserID, staff.BranchID)

	// Inbound messages are ignored; reading detects disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	fc.Hub.Unregister(ws)
}
