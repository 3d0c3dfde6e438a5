package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

type MenuController struct {
	DB       *gorm.DB
	Policies services.PolicyProvider
}

func NewMenuController(db *gorm.DB, policies services.PolicyProvider) *MenuController {
	return &MenuController{DB: db, Policies: policies}
}

type menuView struct {
	ID             uint                   `json:"id"`
	Name           string                 `json:"name"`
	Price          int64                  `json:"price"`
	PriceDisplay   string                 `json:"price_display"`
	ModifierGroups []models.ModifierGroup `json:"modifier_groups"`
}

// GetMenus -> available items of the session's branch, names in the session locale
func (mc *MenuController) GetMenus(c *gin.Context) {
	session := middlewares.CurrentSession(c)
	policy, err := mc.Policies.ForTable(c.Request.Context(), session.TableID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var menus []models.Menu
	err = mc.DB.WithContext(c.Request.Context()).
		Preload("ModifierGroups").
		Preload("ModifierGroups.Options").
		Where("branch_id = ? AND available = ?", policy.BranchID, true).
		Order("name").
		Find(&menus).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	views := make([]menuView, 0, len(menus))
	for i := range menus {
		views = append(views, menuView{
			ID:             menus[i].ID,
			Name:           menus[i].LocalizedName(session.Locale),
			Price:          menus[i].Price,
			PriceDisplay:   utils.FormatMinor(menus[i].Price),
			ModifierGroups: menus[i].ModifierGroups,
		})
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", views)
}
