package ai

import (
	"encoding/json"
	"strings"
)

// ExtractOutputText pulls the JSON payload text out of a raw provider
// response body. It is a pure transform: when the body carries no usable
// text it reports ok=false instead of failing, feeding the decoder's own
// fallback path.
func ExtractOutputText(body []byte, mode WireMode) (string, bool) {
	if mode == WireResponses {
		return extractResponsesText(body)
	}
	return extractChatCompletionsText(body)
}

// extractResponsesText handles the schema-native shape:
// {output: [{content: [{type, text}]}]}. The first content item typed
// output_text wins; reasoning or tool items before it are skipped.
func extractResponsesText(body []byte) (string, bool) {
	var wrapper struct {
		Output []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return "", false
	}

	for _, item := range wrapper.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" {
				return content.Text, true
			}
		}
	}
	return "", false
}

// extractChatCompletionsText handles the legacy shape:
// {choices: [{message: {content: <string or array-of-parts>}}]}.
func extractChatCompletionsText(body []byte) (string, bool) {
	var wrapper struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || len(wrapper.Choices) == 0 {
		return "", false
	}

	raw := wrapper.Choices[0].Message.Content
	if len(raw) == 0 {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return extractJSONObjectString(text), true
	}

	// Some gateways return content as an array of typed parts.
	var parts []map[string]any
	if err := json.Unmarshal(raw, &parts); err == nil {
		var pieces []string
		for _, part := range parts {
			if s, ok := part["text"].(string); ok {
				pieces = append(pieces, s)
			} else if s, ok := part["content"].(string); ok {
				pieces = append(pieces, s)
			}
		}
		if len(pieces) == 0 {
			return "", false
		}
		return extractJSONObjectString(strings.Join(pieces, "\n")), true
	}

	return "", false
}

// extractJSONObjectString recovers a JSON object from model output that may
// wrap it in a markdown code fence or surrounding prose. When no braces are
// found the trimmed text is returned unchanged.
func extractJSONObjectString(text string) string {
	work := strings.TrimSpace(text)
	if strings.HasPrefix(work, "```") {
		work = strings.ReplaceAll(work, "```json", "")
		work = strings.ReplaceAll(work, "```", "")
		work = strings.TrimSpace(work)
	}

	start := strings.Index(work, "{")
	end := strings.LastIndex(work, "}")
	if start == -1 || end == -1 || end < start {
		return work
	}
	return work[start : end+1]
}
