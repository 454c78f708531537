// Package ai implements the provider-facing half of the conversational
// pipeline: request building for the two supported wire shapes, response
// text extraction, and tolerant parse-result decoding.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/passtalk/passtalk/internal/config"
	"github.com/passtalk/passtalk/internal/model"
	"github.com/passtalk/passtalk/pkg/logger"
	"github.com/passtalk/passtalk/pkg/metrics"
)

// Settings store keys.
const (
	APIKeyKey       = "openai_api_key"
	EndpointKey     = "openai_endpoint"
	ModelKey        = "openai_model"
	SystemPromptKey = "openai_system_prompt"
)

// historyWindow bounds how many trailing turns are sent to the provider,
// keeping payload size and model context from growing without limit.
const historyWindow = 12

// formatFollowUp is the diagnostic question surfaced when the provider
// response carried no decodable JSON. The conversation continues instead of
// failing.
const formatFollowUp = "我没能理解模型的返回内容，请再说一次，或检查接口设置。"

// SecretStore reads and writes opaque secret values.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// SettingsSource reads persisted string settings; absent keys yield "".
type SettingsSource interface {
	Get(key string) (string, error)
}

// Client talks to an OpenAI-compatible provider and turns user utterances
// into structured parse results. Configuration is loaded fresh per request
// so it always reflects the latest saved settings.
type Client struct {
	secrets  SecretStore
	settings SettingsSource
	defaults Defaults
	http     *http.Client
	logger   *logger.Logger
}

// Defaults are the fallback endpoint, model and prompt used when the
// settings store has no override.
type Defaults struct {
	Endpoint     string
	Model        string
	SystemPrompt string
}

// NewClient creates a provider client.
func NewClient(secrets SecretStore, settings SettingsSource, defaults Defaults, timeout time.Duration, log *logger.Logger) *Client {
	if defaults.Endpoint == "" {
		defaults.Endpoint = config.DefaultEndpoint
	}
	if defaults.Model == "" {
		defaults.Model = config.DefaultModel
	}
	if defaults.SystemPrompt == "" {
		defaults.SystemPrompt = config.DefaultSystemPrompt
	}
	return &Client{
		secrets:  secrets,
		settings: settings,
		defaults: defaults,
		http:     &http.Client{Timeout: timeout},
		logger:   log,
	}
}

// chatMessage is the wire form of one conversation turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Parse classifies one user message against the trailing conversation
// history. Transport and HTTP failures return typed errors; an unreadable
// provider payload degrades to an unknown-intent result instead.
func (c *Client) Parse(ctx context.Context, text string, history []model.ChatMessage) (model.ParseResult, error) {
	apiKey, err := c.apiKey()
	if err != nil {
		return model.ParseResult{}, err
	}

	cfg := c.loadConfig()
	messages := buildMessages(history, text, cfg.SystemPrompt)

	var body map[string]any
	if cfg.Mode == WireChatCompletions {
		body = map[string]any{
			"model":           cfg.Model,
			"messages":        messages,
			"temperature":     0,
			"response_format": map[string]any{"type": "json_object"},
		}
	} else {
		body = map[string]any{
			"model": cfg.Model,
			"input": messages,
			"text": map[string]any{
				"format": map[string]any{
					"type":   "json_schema",
					"name":   "pass_talk_parse_result",
					"schema": parseResultSchema(),
					"strict": true,
				},
			},
		}
	}

	start := time.Now()
	respBody, err := c.post(ctx, cfg, apiKey, body)
	if err != nil {
		metrics.RecordParse(cfg.Mode.String(), "error", time.Since(start).Seconds())
		return model.ParseResult{}, err
	}
	metrics.RecordParse(cfg.Mode.String(), "success", time.Since(start).Seconds())

	jsonText, ok := ExtractOutputText(respBody, cfg.Mode)
	if !ok {
		c.logger.Warn("provider response carried no output text",
			zap.String("mode", cfg.Mode.String()))
		return degradedResult(), nil
	}

	result, tier := DecodeParseResult(jsonText)
	if tier == DecodeFailed {
		c.logger.Warn("provider output was not a JSON object",
			zap.String("mode", cfg.Mode.String()))
		return degradedResult(), nil
	}
	if tier == DecodeLenient {
		c.logger.Debug("parse result recovered leniently")
	}
	return result, nil
}

// TestConnection sends a minimal two-message exchange and reports the
// resolved endpoint and model. Callers are expected to save settings first;
// the config here is re-read from the store.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	apiKey, err := c.apiKey()
	if err != nil {
		return "", err
	}

	cfg := c.loadConfig()
	messages := []chatMessage{
		{Role: "system", Content: "回复 ok"},
		{Role: "user", Content: "hi"},
	}

	var body map[string]any
	if cfg.Mode == WireChatCompletions {
		body = map[string]any{
			"model":       cfg.Model,
			"messages":    messages,
			"temperature": 0,
		}
	} else {
		body = map[string]any{
			"model": cfg.Model,
			"input": messages,
			"text":  map[string]any{"format": map[string]any{"type": "text"}},
		}
	}

	if _, err := c.post(ctx, cfg, apiKey, body); err != nil {
		return "", err
	}

	return fmt.Sprintf("连接成功\nEndpoint: %s\nModel: %s", cfg.Endpoint.String(), cfg.Model), nil
}

func (c *Client) apiKey() (string, error) {
	key, err := c.secrets.Get(APIKeyKey)
	if err != nil || strings.TrimSpace(key) == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// loadConfig re-reads settings so a request always sees the latest saved
// values. Settings-store read failures fall back to defaults.
func (c *Client) loadConfig() ProviderConfig {
	rawEndpoint, err := c.settings.Get(EndpointKey)
	if err != nil || strings.TrimSpace(rawEndpoint) == "" {
		rawEndpoint = c.defaults.Endpoint
	}
	endpoint, mode := NormalizeEndpoint(rawEndpoint)

	rawModel, err := c.settings.Get(ModelKey)
	if err != nil || strings.TrimSpace(rawModel) == "" {
		rawModel = c.defaults.Model
	}

	rawPrompt, err := c.settings.Get(SystemPromptKey)
	if err != nil || strings.TrimSpace(rawPrompt) == "" {
		rawPrompt = c.defaults.SystemPrompt
	}

	return ProviderConfig{
		Endpoint:     endpoint,
		Mode:         mode,
		Model:        strings.TrimSpace(rawModel),
		SystemPrompt: rawPrompt,
	}
}

func (c *Client) post(ctx context.Context, cfg ProviderConfig, apiKey string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			Status: resp.StatusCode,
			Detail: errorDetail(respBody, resp.StatusCode),
		}
	}

	return respBody, nil
}

// errorDetail extracts error.message from a provider error body, else the
// raw body text, else a generic HTTP line.
func errorDetail(body []byte, status int) string {
	var wrapper struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return wrapper.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// buildMessages assembles the outbound message list: the system prompt, then
// up to the last historyWindow turns, then the latest user text when there
// is no history at all.
func buildMessages(history []model.ChatMessage, latestUserText, systemPrompt string) []chatMessage {
	messages := []chatMessage{{Role: "system", Content: systemPrompt}}

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	if len(recent) == 0 {
		return append(messages, chatMessage{Role: "user", Content: latestUserText})
	}

	for _, msg := range recent {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Content})
	}
	return messages
}

func degradedResult() model.ParseResult {
	result := model.UnknownParseResult()
	result.FollowUpQuestion = formatFollowUp
	return result
}

// parseResultSchema is the JSON schema constraining schema-native responses.
func parseResultSchema() map[string]any {
	tagEnum := []any{"social", "shopping", "finance", "work", "entertainment", "email", "devtools", "other", nil}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"intent":           map[string]any{"type": "string", "enum": []string{"save", "query", "update", "unknown"}},
			"platform":         map[string]any{"type": []string{"string", "null"}},
			"account":          map[string]any{"type": []string{"string", "null"}},
			"password":         map[string]any{"type": []string{"string", "null"}},
			"note":             map[string]any{"type": []string{"string", "null"}},
			"primaryTag":       map[string]any{"type": []string{"string", "null"}, "enum": tagEnum},
			"secondaryTag":     map[string]any{"type": []string{"string", "null"}, "enum": tagEnum},
			"missingFields":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"followUpQuestion": map[string]any{"type": []string{"string", "null"}},
			"queryKeyword":     map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"intent", "platform", "account", "password", "note", "primaryTag", "secondaryTag", "missingFields", "followUpQuestion", "queryKeyword"},
	}
}
