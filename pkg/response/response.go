package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error envelope written by shared middleware.
// It has the same shape as the handlers' error DTO.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error writes an error body with status
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// AbortWithError writes an error body and stops the handler chain
func AbortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// BadRequest aborts with 400
func BadRequest(c *gin.Context, code, message string) {
	AbortWithError(c, http.StatusBadRequest, code, message)
}

// Unauthorized aborts with 401
func Unauthorized(c *gin.Context, message string) {
	AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Conflict aborts with 409
func Conflict(c *gin.Context, code, message string) {
	AbortWithError(c, http.StatusConflict, code, message)
}
