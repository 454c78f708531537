package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passtalk/passtalk/internal/model"
)

func tagPtr(t model.PresetTag) *model.PresetTag { return &t }

func TestMergeDraftFromScratch(t *testing.T) {
	draft := MergeDraft(model.ParseResult{
		Intent:   model.IntentSave,
		Platform: " GitHub ",
		Account:  "alex@example.com",
	}, nil)

	assert.Equal(t, "GitHub", draft.Platform)
	assert.Equal(t, "alex@example.com", draft.Account)
	assert.Empty(t, draft.Password)
	assert.Equal(t, model.TagOther, draft.PrimaryTag)
	assert.Nil(t, draft.SecondaryTag)
}

func TestMergeDraftBlankNeverOverwrites(t *testing.T) {
	prev := &Draft{Platform: "GitHub", Account: "alex@example.com", PrimaryTag: model.TagDevtools}

	draft := MergeDraft(model.ParseResult{
		Intent:   model.IntentSave,
		Platform: "   ",
		Password: "Gh!2024",
	}, prev)

	assert.Equal(t, "GitHub", draft.Platform)
	assert.Equal(t, "alex@example.com", draft.Account)
	assert.Equal(t, "Gh!2024", draft.Password)
	assert.Equal(t, model.TagDevtools, draft.PrimaryTag)

	// The previous draft is untouched.
	assert.Empty(t, prev.Password)
}

func TestMergeDraftNewValuesWin(t *testing.T) {
	prev := &Draft{Platform: "GitHub", Password: "old"}

	draft := MergeDraft(model.ParseResult{
		Intent:     model.IntentUpdate,
		Password:   "new",
		PrimaryTag: tagPtr(model.TagWork),
	}, prev)

	assert.Equal(t, "new", draft.Password)
	assert.Equal(t, model.TagWork, draft.PrimaryTag)
}

func TestMergeDraftSecondaryTag(t *testing.T) {
	draft := MergeDraft(model.ParseResult{SecondaryTag: tagPtr(model.TagEmail)}, nil)
	require.NotNil(t, draft.SecondaryTag)
	assert.Equal(t, model.TagEmail, *draft.SecondaryTag)

	// Absent secondary tag keeps the previous one.
	merged := MergeDraft(model.ParseResult{Platform: "Gmail"}, draft)
	require.NotNil(t, merged.SecondaryTag)
	assert.Equal(t, model.TagEmail, *merged.SecondaryTag)
}

func TestDraftMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  []string
	}{
		{"empty", Draft{}, []string{"platform", "account", "password"}},
		{"platform only", Draft{Platform: "GitHub"}, []string{"account", "password"}},
		{"whitespace does not count", Draft{Platform: "GitHub", Account: "  "}, []string{"account", "password"}},
		{"complete", Draft{Platform: "GitHub", Account: "a", Password: "p"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.draft.MissingFields())
			assert.Equal(t, len(tt.want) == 0, tt.draft.Complete())
		})
	}
}

func TestDraftPatch(t *testing.T) {
	t.Run("incomplete draft never yields a patch", func(t *testing.T) {
		draft := Draft{Platform: "GitHub", Account: "alex@example.com"}
		_, ok := draft.Patch()
		assert.False(t, ok)
	})

	t.Run("complete draft yields trimmed patch", func(t *testing.T) {
		draft := Draft{
			Platform: " GitHub ",
			Account:  "alex@example.com",
			Password: "Gh!2024 ",
			Note:     " work account ",
		}
		patch, ok := draft.Patch()
		require.True(t, ok)
		assert.Equal(t, "GitHub", patch.Platform)
		assert.Equal(t, "Gh!2024", patch.Password)
		assert.Equal(t, "work account", patch.Note)
		assert.Equal(t, model.TagOther, patch.PrimaryTag)
	})
}

func TestDraftFollowUpQuestion(t *testing.T) {
	draft := Draft{Platform: "GitHub"}
	assert.Equal(t, "我还需要这些信息：账号、密码。可以补充一下吗？", draft.FollowUpQuestion())

	full := Draft{Platform: "GitHub", Account: "a", Password: "p"}
	assert.Empty(t, full.FollowUpQuestion())
}
