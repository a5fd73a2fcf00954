// Datadog 웹훅 요청을 처리하는 핸들러
//
// 요청 흐름:
//  1. Datadog 모니터가 POST /datadog-webhook으로 알림 전송
//  2. JSON 페이로드를 DatadogWebhook 구조체로 파싱
//  3. service 레이어에서 검증/해싱/중복 제거 후 동기 응답
//  4. 실제 enrichment는 Worker가 비동기로 진행

package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/k-fix/backend/internal/model"
	"github.com/k-fix/backend/internal/service"
)

// Webhook 핸들러 구조체 정의
type WebhookHandler struct {
	alertService *service.AlertService
}

// Webhook 핸들러 객체 생성
func NewWebhookHandler(alertService *service.AlertService) *WebhookHandler {
	return &WebhookHandler{alertService: alertService}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	var webhook model.DatadogWebhook

	if err := c.ShouldBindJSON(&webhook); err != nil {
		log.Printf("Failed to parse webhook: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	log.Printf("Received alert webhook (alert_id=%s, event_id=%s, title=%s)",
		webhook.AlertID, webhook.EventID, webhook.Title)

	result, err := h.alertService.Ingest(c.Request.Context(), webhook)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to ingest alert: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := "accepted"
	if result.Duplicate {
		status = "duplicate"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"alert_hash": result.Hash,
	})
}
