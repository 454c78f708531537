package ai

import (
	"net/url"
	"strings"

	"github.com/passtalk/passtalk/internal/config"
)

// WireMode identifies which of the two supported request/response shapes the
// configured endpoint expects. It is derived once during endpoint
// normalization, never re-derived at call sites.
type WireMode int

const (
	// WireChatCompletions is the legacy `messages`/`response_format` shape.
	WireChatCompletions WireMode = iota
	// WireResponses is the schema-native `input`/`text.format` shape.
	WireResponses
)

func (m WireMode) String() string {
	if m == WireResponses {
		return "responses"
	}
	return "chat_completions"
}

// ProviderConfig is the resolved AI provider configuration for one request.
type ProviderConfig struct {
	Endpoint     *url.URL
	Mode         WireMode
	Model        string
	SystemPrompt string
}

// NormalizeEndpoint resolves a raw configured endpoint URL. URLs already
// ending in a recognized suffix are used verbatim; anything else gets
// `/v1/chat/completions` appended to its path, since most OpenAI-compatible
// gateways only implement that route. Blank or malformed input falls back to
// the hardcoded default.
func NormalizeEndpoint(raw string) (*url.URL, WireMode) {
	fallback, _ := url.Parse(config.DefaultEndpoint)

	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return fallback, WireChatCompletions
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fallback, WireChatCompletions
	}

	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, "/responses") {
		return u, WireResponses
	}
	if strings.HasSuffix(path, "/chat/completions") {
		return u, WireChatCompletions
	}

	basePath := strings.Trim(u.Path, "/")
	if basePath == "" {
		u.Path = "/v1/chat/completions"
	} else {
		u.Path = "/" + basePath + "/v1/chat/completions"
	}

	return u, WireChatCompletions
}
