package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/k-fix/backend/internal/service"
)

type fakeAlertStore struct {
	saved map[string][]byte
}

func (f *fakeAlertStore) IsAlertReceived(ctx context.Context, hash string) bool {
	_, ok := f.saved[hash]
	return ok
}

func (f *fakeAlertStore) SaveAlert(ctx context.Context, hash string, payload []byte) error {
	f.saved[hash] = payload
	return nil
}

func webhookRouter() (*gin.Engine, *fakeAlertStore) {
	gin.SetMode(gin.TestMode)
	store := &fakeAlertStore{saved: make(map[string][]byte)}
	r := gin.New()
	r.POST("/datadog-webhook", NewWebhookHandler(service.NewAlertService(store)).Receive)
	return r, store
}

func postWebhook(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/datadog-webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookAccepted(t *testing.T) {
	r, store := webhookRouter()

	w := postWebhook(r, `{"alert_id":"12345","event_id":"e1","event_type":"query_alert_monitor","title":"CPU high"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["status"] != "accepted" {
		t.Errorf("status = %q", response["status"])
	}
	if len(store.saved) != 1 {
		t.Errorf("expected one stored alert, got %d", len(store.saved))
	}
}

func TestWebhookDuplicate(t *testing.T) {
	r, _ := webhookRouter()

	body := `{"alert_id":"12345","event_id":"e1","title":"CPU high"}`
	if w := postWebhook(r, body); w.Code != http.StatusOK {
		t.Fatalf("first delivery failed: %d", w.Code)
	}

	w := postWebhook(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["status"] != "duplicate" {
		t.Errorf("status = %q", response["status"])
	}
}

func TestWebhookMissingAlertID(t *testing.T) {
	r, _ := webhookRouter()

	w := postWebhook(r, `{"event_id":"e1","title":"CPU high"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookInvalidJSON(t *testing.T) {
	r, _ := webhookRouter()

	w := postWebhook(r, `not-json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
