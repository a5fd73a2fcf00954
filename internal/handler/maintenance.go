// 유지보수/모니터링 엔드포인트 (hot path 아님, 토큰 인증 필요)

package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/k-fix/backend/internal/db"
)

// 모델 토큰/비용 누적치 조회 인터페이스
type usageReporter interface {
	UsageStats() (int, float64)
}

// Maintenance 핸들러 구조체 정의
type MaintenanceHandler struct {
	database *db.Postgres
	usage    usageReporter
}

// Maintenance 핸들러 객체 생성
func NewMaintenanceHandler(database *db.Postgres, usage usageReporter) *MaintenanceHandler {
	return &MaintenanceHandler{database: database, usage: usage}
}

// Statistics - 상태별 알림 카운트 + 최근 알림 요약 + 모델 사용량
func (h *MaintenanceHandler) Statistics(c *gin.Context) {
	stats := h.database.GetAlertStatistics(c.Request.Context())

	response := gin.H{
		"alert_counts":  stats.AlertCounts,
		"recent_alerts": stats.RecentAlerts,
	}
	if h.usage != nil {
		tokens, cost := h.usage.UsageStats()
		response["model_usage"] = gin.H{
			"total_tokens":  tokens,
			"cost_estimate": cost,
		}
	}
	c.JSON(http.StatusOK, response)
}

// Cleanup - 종료 상태인 오래된 알림 삭제
// 쿼리 파라미터 days (default: 30)
func (h *MaintenanceHandler) Cleanup(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	deleted, err := h.database.CleanupOldAlerts(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		log.Printf("Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "days": days})
}
