package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/k-fix/backend/internal/config"
)

func testDatadogClient(t *testing.T, handler http.HandlerFunc) *DatadogClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewDatadogClient(config.DatadogConfig{APIKey: "api", AppKey: "app", Site: "datadoghq.eu"})
	if err != nil {
		t.Fatal(err)
	}
	client.baseURL = server.URL
	return client
}

func TestGetRuntimeEvent(t *testing.T) {
	client := testDatadogClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/events/e1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("DD-API-KEY") != "api" || r.Header.Get("DD-APPLICATION-KEY") != "app" {
			t.Errorf("missing auth headers")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"id": "e1",
				"attributes": {
					"message": "CPU usage above threshold",
					"timestamp": 1756500000000,
					"tags": ["pod_name:web-1", "kube_namespace:default"],
					"attributes": {"title": "CPU high", "alert_type": "error"}
				}
			}
		}`))
	})

	event, err := client.GetRuntimeEvent(context.Background(), "e1")
	if err != nil {
		t.Fatal(err)
	}
	if event.Title != "CPU high" || event.AlertType != "error" {
		t.Errorf("event = %+v", event)
	}
	if len(event.Tags) != 2 || event.Tags[0] != "pod_name:web-1" {
		t.Errorf("tags = %v", event.Tags)
	}
	if event.Timestamp != time.UnixMilli(1756500000000).UTC() {
		t.Errorf("timestamp = %v", event.Timestamp)
	}
}

func TestGetRuntimeEventNotFound(t *testing.T) {
	client := testDatadogClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRuntimeEvent(context.Background(), "missing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestGetRuntimeEventServerError(t *testing.T) {
	client := testDatadogClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetRuntimeEvent(context.Background(), "e1")
	if err == nil || errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestNewDatadogClientRequiresKeys(t *testing.T) {
	if _, err := NewDatadogClient(config.DatadogConfig{Site: "datadoghq.eu"}); err == nil {
		t.Errorf("expected error without keys")
	}
}
