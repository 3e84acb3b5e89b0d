package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func write(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      status,
		RequestID: GetRequestID(c),
	})
}

func HandleSuccess(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusOK, data, message)
}

func HandleCreated(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusCreated, data, message)
}

// HandleList renders data and count even for an empty result.
func HandleList(c *gin.Context, data interface{}, count int, message string) {
	c.JSON(http.StatusOK, &ListResponse{
		Success:   true,
		Data:      data,
		Count:     count,
		Message:   message,
		Code:      http.StatusOK,
		RequestID: GetRequestID(c),
	})
}
