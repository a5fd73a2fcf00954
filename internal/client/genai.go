// Gemini 모델 호출 클라이언트 정의
//
// 환경변수:
//   - AI_API_KEY: Gemini API Key
//   - AI_MODEL: 모델 이름 (default: gemini-2.0-flash)
//   - AI_TIMEOUT: 호출 타임아웃 (Worker 폴링 주기와 별개)
//
// 타임아웃 초과는 Worker 쪽에서 처리 실패(failed)로 기록됨 (조용한 재시도 아님)

package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/k-fix/backend/internal/config"
	"github.com/k-fix/backend/internal/model"
	"google.golang.org/genai"
)

// ModelClient 구조체 정의
type ModelClient struct {
	client *genai.Client
	model  string
	cfg    config.ModelConfig

	// 누적 사용량 (모니터링용)
	mu          sync.Mutex
	totalTokens int
	totalCost   float64
}

// ModelClient 객체 생성
func NewModelClient(cfg config.ModelConfig) (*ModelClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}

	return &ModelClient{client: client, model: cfg.Model, cfg: cfg}, nil
}

// GenerateSolution - 시스템 프롬프트 + 컨텍스트 문서로 해결책 생성 요청
// 반환: 자유 텍스트 응답 + 토큰/비용 집계
func (c *ModelClient) GenerateSolution(ctx context.Context, systemPrompt, contextPrompt string) (string, *model.ModelUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(contextPrompt, genai.RoleUser),
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1),
		MaxOutputTokens:   2048,
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", nil, fmt.Errorf("model call failed: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", nil, fmt.Errorf("empty model response")
	}

	tokens := 0
	if res.UsageMetadata != nil {
		tokens = int(res.UsageMetadata.TotalTokenCount)
	}
	cost := estimateCost(tokens)
	c.recordUsage(tokens, cost)

	usage := &model.ModelUsage{
		Model:        c.model,
		TokensUsed:   tokens,
		CostEstimate: cost,
	}
	return text, usage, nil
}

// UsageStats - 프로세스 누적 토큰/비용 (statistics 엔드포인트용)
func (c *ModelClient) UsageStats() (int, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalTokens, c.totalCost
}

func (c *ModelClient) recordUsage(tokens int, cost float64) {
	c.mu.Lock()
	c.totalTokens += tokens
	c.totalCost += cost
	total, totalCost := c.totalTokens, c.totalCost
	c.mu.Unlock()

	log.Printf("Model call: %d tokens, $%.4f | total: %d tokens, $%.4f", tokens, cost, total, totalCost)
}

// 근사 비용 계산: input 70% / output 30% 비율 가정
func estimateCost(totalTokens int) float64 {
	inputTokens := float64(totalTokens) * 0.7
	outputTokens := float64(totalTokens) * 0.3
	return inputTokens/1000*0.0001 + outputTokens/1000*0.0004
}
