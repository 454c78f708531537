package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/passtalk/passtalk/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantURL  string
		wantMode WireMode
	}{
		{
			name:     "empty falls back to default",
			raw:      "",
			wantURL:  config.DefaultEndpoint,
			wantMode: WireChatCompletions,
		},
		{
			name:     "whitespace falls back to default",
			raw:      "   ",
			wantURL:  config.DefaultEndpoint,
			wantMode: WireChatCompletions,
		},
		{
			name:     "missing scheme falls back to default",
			raw:      "api.example.com/v1",
			wantURL:  config.DefaultEndpoint,
			wantMode: WireChatCompletions,
		},
		{
			name:     "chat completions suffix used verbatim",
			raw:      "https://gateway.example.com/v1/chat/completions",
			wantURL:  "https://gateway.example.com/v1/chat/completions",
			wantMode: WireChatCompletions,
		},
		{
			name:     "responses suffix used verbatim",
			raw:      "https://api.openai.com/v1/responses",
			wantURL:  "https://api.openai.com/v1/responses",
			wantMode: WireResponses,
		},
		{
			name:     "bare host gets chat completions path",
			raw:      "https://gateway.example.com",
			wantURL:  "https://gateway.example.com/v1/chat/completions",
			wantMode: WireChatCompletions,
		},
		{
			name:     "base path is preserved under appended route",
			raw:      "https://gateway.example.com/openai/",
			wantURL:  "https://gateway.example.com/openai/v1/chat/completions",
			wantMode: WireChatCompletions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, mode := NormalizeEndpoint(tt.raw)
			assert.Equal(t, tt.wantURL, u.String())
			assert.Equal(t, tt.wantMode, mode)
		})
	}
}
