// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the AI provider. Endpoint and model can be overridden through
// the settings store at runtime; these seed the initial values.
const (
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultModel    = "gpt-4.1-mini"
)

// DefaultSystemPrompt instructs the model to classify user utterances and
// emit strict JSON parse results.
const DefaultSystemPrompt = `你是 PassTalk 的对话助手「Talkie」。
你的核心职责是帮助用户完成 PassTalk 密码管理相关任务（保存、查询、更新账号密码信息）。

必须遵守：
1) 你可以进行简短自然对话（例如问候、寒暄），但应尽快引导回产品动作：记录、查询或更新密码信息。
2) 如果用户在打招呼（例如：你好、hi、hello、在吗），你需要简短友好回应，并引导用户提供可记录的信息（平台、账号、密码）。这类场景 intent=unknown。
3) 当用户表达“保存/新增/记一下”且信息不完整时，intent=save，missingFields 必须列出缺失字段（只允许 platform/account/password），并给出一条明确 followUpQuestion 引导补齐。
4) 当用户表达“更新/修改”时，intent=update。若缺字段，同样按第 3 条处理。
5) 当用户表达“查找/查询/找回”时，intent=query，并尽量提取 queryKeyword（例如平台名或关键词）。
6) 对于明显与产品无关且不适合继续展开的请求，intent=unknown，并用 followUpQuestion 把用户拉回产品动作（例如“你可以告诉我平台、账号、密码，我来帮你记住”）。
7) 标签必须是：social/shopping/finance/work/entertainment/email/devtools/other。
8) 只输出 JSON，不要输出任何额外文字、解释或 markdown。
9) unknown 场景不要机械重复同一句模板。请结合最近对话上下文，给出自然、简短、不过度啰嗦的回应。
10) 若用户正在补全上一条记录（例如先说了平台，下一句再给账号密码），要利用上下文补齐，不要重复索要已经给过的信息。

字段定义：
- intent: save/query/update/unknown
- platform/account/password/note/primaryTag/secondaryTag/queryKeyword: 可为字符串或 null
- missingFields: 字符串数组
- followUpQuestion: 字符串或 null`

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Storage
	DatabasePath string

	// Device identity recorded on writes for sync bookkeeping
	DeviceID string

	// Session settings
	AccessToken   string
	JWTSecret     string
	JWTExpiration time.Duration

	// AI provider defaults (overridable via the settings store)
	AIEndpoint     string
	AIModel        string
	AISystemPrompt string
	AITimeout      time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Storage
		DatabasePath: getEnv("DATABASE_PATH", "passtalk.db"),

		// Device
		DeviceID: getEnv("DEVICE_ID", defaultDeviceID()),

		// Session
		AccessToken:   getEnv("ACCESS_TOKEN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// AI provider
		AIEndpoint:     getEnv("AI_ENDPOINT", DefaultEndpoint),
		AIModel:        getEnv("AI_MODEL", DefaultModel),
		AISystemPrompt: getEnv("AI_SYSTEM_PROMPT", DefaultSystemPrompt),
		AITimeout:      getDurationEnv("AI_TIMEOUT", 60*time.Second),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func defaultDeviceID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown-device"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
