package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"k8s.io/client-go/kubernetes"

	"github.com/k-fix/backend/internal/client"
	"github.com/k-fix/backend/internal/config"
	"github.com/k-fix/backend/internal/db"
	"github.com/k-fix/backend/internal/handler"
	"github.com/k-fix/backend/internal/service"
)

func main() {
	// 로컬 개발 환경에서만 .env 파일 로드
	if env := os.Getenv("ENVIRONMENT"); env == "" || env == "local" {
		if err := godotenv.Load(); err == nil {
			log.Printf("Loaded environment from .env file")
		}
	}

	cfg := config.Load()

	// SIGINT/SIGTERM 수신 시 워커와 서버를 함께 정리
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL 연결 및 스키마 보장
	database, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.Close()

	if err := database.EnsureAlertSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure alert schema: %v", err)
	}

	// Kubernetes 클라이언트 - 실패해도 서버는 기동 (discovery만 비활성)
	var kubeClient kubernetes.Interface
	if kc, err := client.NewKubeClient(); err != nil {
		log.Printf("Kubernetes client unavailable, discovery disabled: %v", err)
	} else {
		kubeClient = kc
	}

	datadogClient, err := client.NewDatadogClient(cfg.Datadog)
	if err != nil {
		log.Fatalf("Failed to create Datadog client: %v", err)
	}

	modelClient, err := client.NewModelClient(cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create model client: %v", err)
	}

	slackClient := client.NewSlackClient(cfg.Slack)

	discoveryService := service.NewDiscoveryService(kubeClient)
	alertService := service.NewAlertService(database)

	// Slack 미설정 시 notifier 생략 (파이프라인은 동일하게 진행)
	worker := service.NewWorker(database, datadogClient, discoveryService, modelClient, nil, cfg.Worker)
	if slackClient.IsConfigured() {
		worker = service.NewWorker(database, datadogClient, discoveryService, modelClient, slackClient, cfg.Worker)
	} else {
		log.Printf("Slack not configured, solution notifications disabled")
	}

	go worker.Run(ctx)

	// 운영 엔드포인트 보호용 토큰 검증 (JWT_SECRET 필수)
	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}

	webhookHandler := handler.NewWebhookHandler(alertService)
	healthHandler := handler.NewHealthHandler(database, cfg.Environment)
	maintenanceHandler := handler.NewMaintenanceHandler(database, modelClient)

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Datadog webhook ingress는 인증 없이 수신
	router.POST("/datadog-webhook", webhookHandler.Receive)
	router.GET("/health", healthHandler.Health)

	ops := router.Group("/", handler.AuthMiddleware(authService))
	ops.GET("/statistics", maintenanceHandler.Statistics)
	ops.POST("/maintenance/cleanup", maintenanceHandler.Cleanup)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting port=%s environment=%s", cfg.Server.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Printf("Server stopped")
}
