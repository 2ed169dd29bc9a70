package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/handler/helper"
)

// ExtractUintParam извлекает uint параметр из URL и сохраняет в контексте
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			helper.BadRequest(c, fmt.Sprintf("Invalid %s", paramName))
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// ExtractStringParam проверяет, что строковый параметр не пустой и не длиннее maxLen
func ExtractStringParam(paramName, contextKey string, maxLen int) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.Param(paramName)
		if value == "" || len(value) > maxLen {
			helper.BadRequest(c, fmt.Sprintf("Invalid %s", paramName))
			return
		}
		c.Set(contextKey, value)
		c.Next()
	}
}
