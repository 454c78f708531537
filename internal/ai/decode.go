package ai

import (
	"encoding/json"
	"strings"

	"github.com/passtalk/passtalk/internal/model"
)

// DecodeTier identifies which decoding path produced a parse result.
type DecodeTier int

const (
	// DecodeStrict means the payload matched the canonical shape exactly.
	DecodeStrict DecodeTier = iota
	// DecodeLenient means the payload was salvaged field by field.
	DecodeLenient
	// DecodeFailed means the payload was not a JSON object at all.
	DecodeFailed
)

// strictParseResult is the canonical wire shape the model is instructed to
// emit. Pointer fields distinguish absent from blank.
type strictParseResult struct {
	Intent           string   `json:"intent"`
	Platform         *string  `json:"platform"`
	Account          *string  `json:"account"`
	Password         *string  `json:"password"`
	Note             *string  `json:"note"`
	PrimaryTag       *string  `json:"primaryTag"`
	SecondaryTag     *string  `json:"secondaryTag"`
	MissingFields    []string `json:"missingFields"`
	FollowUpQuestion *string  `json:"followUpQuestion"`
	QueryKeyword     *string  `json:"queryKeyword"`
}

// DecodeParseResult turns extracted JSON text into a ParseResult. It never
// fails hard: a payload that misses the strict shape falls back to lenient
// per-field coercion, and only a non-object payload reports DecodeFailed.
// Compatibility-mode providers add prose, omit fields, or mangle casing, so
// the conversation must survive anything the model sends back.
func DecodeParseResult(text string) (model.ParseResult, DecodeTier) {
	if result, ok := decodeStrict(text); ok {
		return result, DecodeStrict
	}

	var object map[string]any
	if err := json.Unmarshal([]byte(text), &object); err != nil {
		return model.UnknownParseResult(), DecodeFailed
	}

	return decodeLenient(object), DecodeLenient
}

func decodeStrict(text string) (model.ParseResult, bool) {
	var wire strictParseResult
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return model.ParseResult{}, false
	}

	intent := model.Intent(wire.Intent)
	switch intent {
	case model.IntentSave, model.IntentQuery, model.IntentUpdate, model.IntentUnknown:
	default:
		return model.ParseResult{}, false
	}

	primary, ok := strictTag(wire.PrimaryTag)
	if !ok {
		return model.ParseResult{}, false
	}
	secondary, ok := strictTag(wire.SecondaryTag)
	if !ok {
		return model.ParseResult{}, false
	}

	result := model.ParseResult{
		Intent:           intent,
		Platform:         trimmed(wire.Platform),
		Account:          trimmed(wire.Account),
		Password:         trimmed(wire.Password),
		Note:             trimmed(wire.Note),
		PrimaryTag:       primary,
		SecondaryTag:     secondary,
		MissingFields:    filterBlank(wire.MissingFields),
		FollowUpQuestion: trimmed(wire.FollowUpQuestion),
		QueryKeyword:     trimmed(wire.QueryKeyword),
	}
	fillMissingFields(&result)
	return result, true
}

// strictTag validates an enum field for the strict tier: nil is fine, a
// value outside the preset set rejects the whole strict decode.
func strictTag(raw *string) (*model.PresetTag, bool) {
	if raw == nil {
		return nil, true
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, true
	}
	tag := model.ParseTag(value)
	if tag == nil {
		return nil, false
	}
	return tag, true
}

func decodeLenient(object map[string]any) model.ParseResult {
	result := model.ParseResult{
		Intent:           model.ParseIntent(coerceLowercased(object["intent"])),
		Platform:         coerceString(object["platform"]),
		Account:          coerceString(object["account"]),
		Password:         coerceString(object["password"]),
		Note:             coerceString(object["note"]),
		PrimaryTag:       model.ParseTag(coerceLowercased(object["primaryTag"])),
		SecondaryTag:     model.ParseTag(coerceLowercased(object["secondaryTag"])),
		MissingFields:    coerceStringSlice(object["missingFields"]),
		FollowUpQuestion: coerceString(object["followUpQuestion"]),
		QueryKeyword:     coerceString(object["queryKeyword"]),
	}
	fillMissingFields(&result)
	return result
}

// fillMissingFields synthesizes the missing-field list for a save or update
// when the model supplied none, checking the required fields in fixed order.
func fillMissingFields(result *model.ParseResult) {
	if len(result.MissingFields) > 0 {
		return
	}
	if result.Intent != model.IntentSave && result.Intent != model.IntentUpdate {
		return
	}
	if result.Platform == "" {
		result.MissingFields = append(result.MissingFields, "platform")
	}
	if result.Account == "" {
		result.MissingFields = append(result.MissingFields, "account")
	}
	if result.Password == "" {
		result.MissingFields = append(result.MissingFields, "password")
	}
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func coerceString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func coerceLowercased(value any) string {
	return strings.ToLower(coerceString(value))
}

func coerceStringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func filterBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
