package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Supported model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultGeminiModel   = "gemini-1.5-flash"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultArkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
)

var (
	// ErrMissingCredential 表示所选模型供应商缺少 API 凭证，服务必须拒绝启动。
	ErrMissingCredential = errors.New("missing API credential")
	ErrUnknownProvider   = errors.New("unknown AI provider")
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Review    ReviewConfig
}

// Load 从环境变量加载配置。缺少凭证时返回包装了 ErrMissingCredential 的错误。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	telemetry, err := loadTelemetryConfig()
	if err != nil {
		return nil, err
	}

	review, err := loadReviewConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Log: logCfg, Telemetry: telemetry, Review: review}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider          string
	APIKey            string
	AccessKey         string
	SecretKey         string
	Model             string
	BaseURL           string
	Region            string
	Temperature       *float64
	MaxTokens         *int
	RequestTimeout    time.Duration
	HistoryTokenLimit int
}

// Enabled 表示是否提供了所选供应商必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderArk {
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk {
		return nil, fmt.Errorf("chat model requested for provider %q, want %q", c.Provider, ProviderArk)
	}
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: provide ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY together with AI_MODEL", ErrMissingCredential)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderGemini))

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 0
	if limit, err := parseOptionalIntEnv("AI_HISTORY_TOKEN_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if limit != nil && *limit > 0 {
		historyLimit = *limit
	}

	cfg := AIConfig{
		Provider:          provider,
		Model:             strings.TrimSpace(os.Getenv("AI_MODEL")),
		BaseURL:           strings.TrimSpace(os.Getenv("AI_BASE_URL")),
		Temperature:       temperature,
		MaxTokens:         maxTokens,
		RequestTimeout:    timeout,
		HistoryTokenLimit: historyLimit,
	}
	override := strings.TrimSpace(os.Getenv("AI_API_KEY"))

	switch provider {
	case ProviderGemini:
		cfg.APIKey = firstNonEmpty(override, os.Getenv("GOOGLE_GEN_AI_API_KEY"))
		cfg.Model = firstNonEmpty(cfg.Model, defaultGeminiModel)
		cfg.BaseURL = firstNonEmpty(cfg.BaseURL, defaultGeminiBaseURL)
		if cfg.APIKey == "" {
			return AIConfig{}, fmt.Errorf("%w: GOOGLE_GEN_AI_API_KEY is not set", ErrMissingCredential)
		}
	case ProviderOpenAI:
		cfg.APIKey = firstNonEmpty(override, os.Getenv("OPENAI_API_KEY"))
		cfg.Model = firstNonEmpty(cfg.Model, defaultOpenAIModel)
		if cfg.APIKey == "" {
			return AIConfig{}, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredential)
		}
	case ProviderArk:
		cfg.APIKey = firstNonEmpty(override, os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.BaseURL = firstNonEmpty(cfg.BaseURL, defaultArkBaseURL)
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
		if !cfg.Enabled() {
			return AIConfig{}, fmt.Errorf("%w: provide ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY together with AI_MODEL", ErrMissingCredential)
		}
	default:
		return AIConfig{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	return cfg, nil
}

// LogConfig 描述日志输出。File 为空时写到标准输出。
type LogConfig struct {
	Level  slog.Level
	Format string
	File   string
}

func loadLogConfig() (LogConfig, error) {
	var level slog.Level
	raw := getEnvOrDefault("LOG_LEVEL", "info")
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{
		Level:  level,
		Format: format,
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
	}, nil
}

// TelemetryConfig 控制 OpenTelemetry 导出。
type TelemetryConfig struct {
	Enabled bool
	Dir     string
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	enabled, err := parseBoolEnv("TELEMETRY_ENABLED", false)
	if err != nil {
		return TelemetryConfig{}, err
	}
	return TelemetryConfig{
		Enabled: enabled,
		Dir:     getEnvOrDefault("TELEMETRY_DIR", "logs"),
	}, nil
}

// ReviewConfig 描述代码审查结果缓存。CachePath 为空时使用内存缓存。
type ReviewConfig struct {
	CachePath string
	CacheTTL  time.Duration
}

func loadReviewConfig() (ReviewConfig, error) {
	ttl, err := parseDurationEnv("REVIEW_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return ReviewConfig{}, err
	}
	return ReviewConfig{
		CachePath: strings.TrimSpace(os.Getenv("REVIEW_CACHE_PATH")),
		CacheTTL:  ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
