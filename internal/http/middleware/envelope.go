package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// abortWithError writes the standard error envelope for err and aborts. A
// zero status means err's own status code.
func abortWithError(c *gin.Context, status int, err *domain.ApplicationError) {
	if status == 0 {
		status = err.StatusCode()
	}
	c.Set(ErrorCodeKey, err.Code())
	c.AbortWithStatusJSON(status, gin.H{
		"success":      false,
		"errorCode":    err.Code(),
		"errorMessage": err.Message(),
	})
}
