package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB       *gorm.DB
	Secret   []byte
	TokenTTL time.Duration
}

func NewUserController(db *gorm.DB, secret []byte, ttl time.Duration) *UserController {
	return &UserController{DB: db, Secret: secret, TokenTTL: ttl}
}

// Login staff -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		utils.RespondError(c, utils.ErrUnauthorized("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, utils.ErrUnauthorized("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(uc.Secret, user.ID, user.BranchID, user.Role, uc.TokenTTL)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Infof("Login successful for user %d (role=%s, branch=%d)", user.ID, user.Role, user.BranchID)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(user.Role),
		"branch_id": user.BranchID,
	})
}

// GetProfile -> the authenticated staff member
func (uc *UserController) GetProfile(c *gin.Context) {
	staff := middlewares.CurrentStaff(c)
	var user models.User
	if err := uc.DB.First(&user, staff.UserID).Error; err != nil {
		utils.RespondError(c, utils.ErrNotFound("user not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}
