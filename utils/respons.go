package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err in the response envelope. AppErrors carry their own status;
// anything else is logged and reported as a 500 without leaking the cause.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(appErr.Status(), JSONResponse{
			Status:  false,
			Message: appErr.Message,
		})
		return
	}

	ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("internal error: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, JSONResponse{
		Status:  false,
		Message: "internal server error",
	})
}
