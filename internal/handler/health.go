package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/k-fix/backend/internal/db"
)

// Health 핸들러 구조체 정의
type HealthHandler struct {
	database    *db.Postgres
	environment string
}

// Health 핸들러 객체 생성
func NewHealthHandler(database *db.Postgres, environment string) *HealthHandler {
	return &HealthHandler{database: database, environment: environment}
}

// 헬스체크 엔드포인트
func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "healthy"
	if err := h.database.Health(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"database":    dbStatus,
		"environment": h.environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
