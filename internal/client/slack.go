// 외부 Slack API와 통신하는 클라이언트 정의
// 분석 완료된 알림의 해결책 제안을 채널에 전송
//
// 환경변수:
//   - SLACK_BOT_TOKEN: Slack Bot Token (xoxb-...)
//   - SLACK_CHANNEL_ID: Slack 채널 ID (C...)
//
// 전송 실패는 알림의 종료 상태에 영향을 주지 않음 (로그만 남김)

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/k-fix/backend/internal/config"
	"github.com/k-fix/backend/internal/model"
)

// SlackClient(메시지 메타데이터) 구조체 정의
type SlackClient struct {
	botToken   string
	channelID  string
	httpClient *http.Client
}

// SlackMessage(메시지 내용) 구조체 정의
type SlackMessage struct {
	Channel     string            `json:"channel"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment(메시지 포맷) 구조체 정의
type SlackAttachment struct {
	// - HIGH priority: #ff0000 (빨강)
	// - MEDIUM priority: #ffaa00 (주황)
	// - LOW priority: #00aa00 (초록)
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Footer string       `json:"footer,omitempty"`
	Fields []SlackField `json:"fields,omitempty"`
}

// SlackField(메시지 포맷 필드) 구조체 정의
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// SlackResponse(메시지 응답) 구조체 정의
type SlackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// SlackClient 객체 생성
func NewSlackClient(cfg config.SlackConfig) *SlackClient {
	return &SlackClient{
		botToken:  cfg.BotToken,
		channelID: cfg.ChannelID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SlackClient에 Bot Token과 Channel ID가 모두 설정되어 있는지 체크
func (c *SlackClient) IsConfigured() bool {
	return c.botToken != "" && c.channelID != ""
}

// SendSolutionProposal - 분석 완료된 알림의 해결책 제안 전송
func (c *SlackClient) SendSolutionProposal(hash string, solution *model.ParsedSolution, safety *model.SafetyReport) error {
	if !c.IsConfigured() {
		return fmt.Errorf("slack bot token or channel ID not configured")
	}

	fields := []SlackField{
		{Title: "Priority", Value: string(solution.Priority), Short: true},
		{Title: "Estimated Time", Value: solution.EstimatedTime, Short: true},
		{Title: "Risk", Value: string(safety.RiskLevel), Short: true},
	}

	text := fmt.Sprintf("*Root Cause:*\n%s\n\n*Proposed Solution:*\n%s",
		excerpt(solution.RootCause, 200), excerpt(solution.Solution, 300))

	if len(solution.Commands) > 0 {
		shown := solution.Commands
		if len(shown) > 3 {
			shown = shown[:3]
		}
		text += "\n\n*Commands:*\n• `" + strings.Join(shown, "`\n• `") + "`"
		if rest := len(solution.Commands) - len(shown); rest > 0 {
			text += fmt.Sprintf("\n... and %d more commands", rest)
		}
	}

	if !safety.IsSafe {
		text += "\n\n:warning: *Unsafe for unattended action:*\n" + strings.Join(safety.SafetyIssues, "\n")
	}

	msg := SlackMessage{
		Channel: c.channelID,
		Attachments: []SlackAttachment{
			{
				Color:  priorityColor(solution.Priority),
				Title:  fmt.Sprintf("🚨 Incident Analysis Complete: %s", shortHash(hash)),
				Text:   text,
				Footer: "k-fix",
				Fields: fields,
			},
		},
	}

	_, err := c.send(msg)
	return err
}

// Slack API 호출
func (c *SlackClient) send(msg SlackMessage) (*SlackResponse, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequest("POST", "https://slack.com/api/chat.postMessage", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var slackResp SlackResponse
	if err := json.Unmarshal(body, &slackResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !slackResp.OK {
		return nil, fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return &slackResp, nil
}

func priorityColor(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "#ff0000"
	case model.PriorityLow:
		return "#00aa00"
	default:
		return "#ffaa00"
	}
}

func excerpt(text string, max int) string {
	if text == "" {
		return "Not identified"
	}
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
