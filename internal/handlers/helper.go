package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseStringIDParam extracts a non-empty path parameter, answering 400 itself
// when the value is blank.
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}
