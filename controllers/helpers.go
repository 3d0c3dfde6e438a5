package controllers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
)

// bindJSON binds the request body into req, responding 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.RespondError(c, utils.ErrBadRequest("invalid request body: %v", err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(c, utils.ErrBadRequest("invalid request body: %v", err))
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, utils.ErrBadRequest("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}
