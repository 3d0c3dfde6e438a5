package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

type PartyController struct {
	Parties *services.PartyService
}

func NewPartyController(parties *services.PartyService) *PartyController {
	return &PartyController{Parties: parties}
}

func (pc *PartyController) CreateParty(c *gin.Context) {
	party, err := pc.Parties.Create(c.Request.Context(), middlewares.CurrentSession(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Party ready", party)
}

func (pc *PartyController) JoinParty(c *gin.Context) {
	var req struct {
		Pin string `json:"pin" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	party, err := pc.Parties.Join(c.Request.Context(), middlewares.CurrentSession(c), req.Pin)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Joined party", party)
}

func (pc *PartyController) CloseParty(c *gin.Context) {
	party, err := pc.Parties.CloseFor(c.Request.Context(), middlewares.CurrentSession(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Party closed", party)
}

// GetParty returns the live party with its members.
func (pc *PartyController) GetParty(c *gin.Context) {
	party, err := pc.Parties.ResolveActive(c.Request.Context(), middlewares.CurrentSession(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if party == nil {
		utils.RespondError(c, utils.ErrNotFound("session has no active party"))
		return
	}

	members, err := pc.Parties.Members(c.Request.Context(), party.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	utils.RespondJSON(c, http.StatusOK, "Party", gin.H{
		"party":   party,
		"members": ids,
	})
}
