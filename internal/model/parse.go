package model

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentSave    Intent = "save"
	IntentQuery   Intent = "query"
	IntentUpdate  Intent = "update"
	IntentUnknown Intent = "unknown"
)

// ParseIntent maps a raw string to an Intent, defaulting to unknown.
func ParseIntent(raw string) Intent {
	switch Intent(raw) {
	case IntentSave, IntentQuery, IntentUpdate:
		return Intent(raw)
	default:
		return IntentUnknown
	}
}

// ParseResult is the structured interpretation of one user message as
// returned by the AI provider. It is transient and never persisted.
type ParseResult struct {
	Intent           Intent     `json:"intent"`
	Platform         string     `json:"platform,omitempty"`
	Account          string     `json:"account,omitempty"`
	Password         string     `json:"password,omitempty"`
	Note             string     `json:"note,omitempty"`
	PrimaryTag       *PresetTag `json:"primaryTag,omitempty"`
	SecondaryTag     *PresetTag `json:"secondaryTag,omitempty"`
	MissingFields    []string   `json:"missingFields"`
	FollowUpQuestion string     `json:"followUpQuestion,omitempty"`
	QueryKeyword     string     `json:"queryKeyword,omitempty"`
}

// UnknownParseResult returns an empty unknown-intent result, used when the
// provider output could not be interpreted at all.
func UnknownParseResult() ParseResult {
	return ParseResult{Intent: IntentUnknown}
}
