package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passtalk/passtalk/internal/model"
)

func TestDecodeParseResultStrict(t *testing.T) {
	text := `{
		"intent": "save",
		"platform": "GitHub",
		"account": "alex@x.com",
		"password": "Gh!2024",
		"note": null,
		"primaryTag": "devtools",
		"secondaryTag": null,
		"missingFields": [],
		"followUpQuestion": null,
		"queryKeyword": null
	}`

	result, tier := DecodeParseResult(text)
	assert.Equal(t, DecodeStrict, tier)
	assert.Equal(t, model.IntentSave, result.Intent)
	assert.Equal(t, "GitHub", result.Platform)
	assert.Equal(t, "alex@x.com", result.Account)
	assert.Equal(t, "Gh!2024", result.Password)
	require.NotNil(t, result.PrimaryTag)
	assert.Equal(t, model.TagDevtools, *result.PrimaryTag)
	assert.Nil(t, result.SecondaryTag)
	assert.Empty(t, result.MissingFields)
}

func TestDecodeParseResultLenient(t *testing.T) {
	t.Run("invalid enum casing recovers leniently", func(t *testing.T) {
		text := `{"intent":"Save","platform":"GitHub","primaryTag":"DevTools"}`
		result, tier := DecodeParseResult(text)
		assert.Equal(t, DecodeLenient, tier)
		assert.Equal(t, model.IntentSave, result.Intent)
		require.NotNil(t, result.PrimaryTag)
		assert.Equal(t, model.TagDevtools, *result.PrimaryTag)
	})

	t.Run("invalid tag value maps to none, not error", func(t *testing.T) {
		text := `{"intent":"save","platform":"GitHub","primaryTag":"banking"}`
		result, tier := DecodeParseResult(text)
		assert.Equal(t, DecodeLenient, tier)
		assert.Nil(t, result.PrimaryTag)
	})

	t.Run("wrong field types are coerced to blank", func(t *testing.T) {
		text := `{"intent":"save","platform":123,"account":"  alex  "}`
		result, tier := DecodeParseResult(text)
		assert.Equal(t, DecodeLenient, tier)
		assert.Equal(t, "", result.Platform)
		assert.Equal(t, "alex", result.Account)
	})

	t.Run("blank missing fields are filtered", func(t *testing.T) {
		text := `{"intent":"query","missingFields":["  ","platform",""]}`
		result, _ := DecodeParseResult(text)
		assert.Equal(t, []string{"platform"}, result.MissingFields)
	})
}

func TestDecodeParseResultMissingFieldFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "save with nothing set",
			text: `{"intent":"save"}`,
			want: []string{"platform", "account", "password"},
		},
		{
			name: "save with platform only",
			text: `{"intent":"save","platform":"GitHub"}`,
			want: []string{"account", "password"},
		},
		{
			name: "update with account only",
			text: `{"intent":"update","account":"alex@x.com"}`,
			want: []string{"platform", "password"},
		},
		{
			name: "save with everything set",
			text: `{"intent":"save","platform":"GitHub","account":"a","password":"p"}`,
			want: nil,
		},
		{
			name: "model-supplied list wins",
			text: `{"intent":"save","missingFields":["password"]}`,
			want: []string{"password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, tier := DecodeParseResult(tt.text)
			require.NotEqual(t, DecodeFailed, tier)
			assert.Equal(t, tt.want, result.MissingFields)
		})
	}

	t.Run("query intent gets no synthesized list", func(t *testing.T) {
		result, _ := DecodeParseResult(`{"intent":"query"}`)
		assert.Empty(t, result.MissingFields)
	})
}

func TestDecodeParseResultFailed(t *testing.T) {
	for _, text := range []string{"", "not json", `["array"]`, `42`} {
		result, tier := DecodeParseResult(text)
		assert.Equal(t, DecodeFailed, tier, "input %q", text)
		assert.Equal(t, model.IntentUnknown, result.Intent)
	}
}
