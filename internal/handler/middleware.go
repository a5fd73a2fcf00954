package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/k-fix/backend/internal/service"
)

const authSubjectKey = "auth_subject"

// AuthMiddleware - 운영용 엔드포인트의 Bearer 토큰 검증
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		subject, err := authService.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}
