package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Postgres    PostgresConfig
	Datadog     DatadogConfig
	Model       ModelConfig
	Slack       SlackConfig
	Worker      WorkerConfig
	Auth        AuthConfig
}

type ServerConfig struct {
	Port string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type DatadogConfig struct {
	APIKey string
	AppKey string

	// Site: API 호스트 결정 (예: datadoghq.eu -> api.datadoghq.eu)
	Site string
}

type ModelConfig struct {
	APIKey string
	Model  string

	// Timeout: 모델 호출 타임아웃 (Worker 폴링 주기와 별개)
	Timeout time.Duration
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
}

type WorkerConfig struct {
	// PollInterval: 정상 폴링 주기
	PollInterval time.Duration

	// ErrorBackoff: 조회/디스패치 실패 후 더 길게 대기하는 주기
	ErrorBackoff time.Duration

	// BatchSize: 한 번에 집어가는 pending alert 최대 개수 (= 동시 처리 슬롯)
	BatchSize int

	// GraceWindow: 수신 직후 이 시간 동안은 픽업 대상에서 제외
	// (ingress 쓰기와 경합하지 않기 위함)
	GraceWindow time.Duration
}

type AuthConfig struct {
	JWTSecret    string
	JWTAccessTTL string
}

func Load() Config {
	return Config{
		Environment: getenv("ENVIRONMENT", "local"),
		Server: ServerConfig{
			Port: getenv("PORT", "8080"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Datadog: DatadogConfig{
			APIKey: os.Getenv("DD_API_KEY"),
			AppKey: os.Getenv("DD_APP_KEY"),
			Site:   getenv("DD_SITE", "datadoghq.eu"),
		},
		Model: ModelConfig{
			APIKey:  os.Getenv("AI_API_KEY"),
			Model:   getenv("AI_MODEL", "gemini-2.0-flash"),
			Timeout: getdur("AI_TIMEOUT", 90*time.Second),
		},
		Slack: SlackConfig{
			BotToken:  os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID: os.Getenv("SLACK_CHANNEL_ID"),
		},
		Worker: WorkerConfig{
			PollInterval: getdur("WORKER_POLL_INTERVAL", 30*time.Second),
			ErrorBackoff: getdur("WORKER_ERROR_BACKOFF", 2*time.Minute),
			BatchSize:    getint("WORKER_BATCH_SIZE", 10),
			GraceWindow:  getdur("WORKER_GRACE_WINDOW", time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			JWTAccessTTL: getenv("JWT_ACCESS_TTL", "24h"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getint(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
