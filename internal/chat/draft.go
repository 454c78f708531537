// Package chat implements the turn-by-turn conversation flow: the pending
// entry draft that accumulates credential fields across turns and the
// orchestrator that dispatches parse results.
package chat

import (
	"fmt"
	"strings"

	"github.com/passtalk/passtalk/internal/model"
)

// requiredFields are checked in this fixed order everywhere a missing-field
// list or question is built.
var requiredFields = []struct {
	name    string
	display string
}{
	{"platform", "平台"},
	{"account", "账号"},
	{"password", "密码"},
}

// Draft is an in-memory, not-yet-persisted partial credential entry. At most
// one draft is active per conversation.
type Draft struct {
	Platform     string
	Account      string
	Password     string
	Note         string
	PrimaryTag   model.PresetTag
	SecondaryTag *model.PresetTag
}

// MergeDraft folds a parse result over an existing draft. New trimmed
// non-blank values win; a blank never overwrites a present value. Note
// defaults to empty and the primary tag to "other" when nothing is known.
func MergeDraft(parse model.ParseResult, prev *Draft) *Draft {
	draft := &Draft{PrimaryTag: model.TagOther}
	if prev != nil {
		copied := *prev
		draft = &copied
	}

	if v := strings.TrimSpace(parse.Platform); v != "" {
		draft.Platform = v
	}
	if v := strings.TrimSpace(parse.Account); v != "" {
		draft.Account = v
	}
	if v := strings.TrimSpace(parse.Password); v != "" {
		draft.Password = v
	}
	if v := strings.TrimSpace(parse.Note); v != "" {
		draft.Note = v
	}
	if parse.PrimaryTag != nil {
		draft.PrimaryTag = *parse.PrimaryTag
	}
	if draft.PrimaryTag == "" {
		draft.PrimaryTag = model.TagOther
	}
	if parse.SecondaryTag != nil {
		draft.SecondaryTag = parse.SecondaryTag
	}

	return draft
}

// MissingFields lists the still-absent required fields in fixed order.
func (d *Draft) MissingFields() []string {
	var missing []string
	for _, f := range requiredFields {
		if d.fieldValue(f.name) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Complete reports whether platform, account and password are all present.
func (d *Draft) Complete() bool {
	return len(d.MissingFields()) == 0
}

// Patch converts a complete draft into a storage patch with trimmed fields.
// It returns ok=false while any required field is still absent; a draft is
// never partially written.
func (d *Draft) Patch() (model.EntryPatch, bool) {
	if !d.Complete() {
		return model.EntryPatch{}, false
	}
	tag := d.PrimaryTag
	if tag == "" {
		tag = model.TagOther
	}
	return model.EntryPatch{
		Platform:     strings.TrimSpace(d.Platform),
		Account:      strings.TrimSpace(d.Account),
		Password:     strings.TrimSpace(d.Password),
		Note:         strings.TrimSpace(d.Note),
		PrimaryTag:   tag,
		SecondaryTag: d.SecondaryTag,
	}, true
}

// FollowUpQuestion builds the deterministic question listing exactly the
// still-missing fields. Used when the provider supplied no question itself.
func (d *Draft) FollowUpQuestion() string {
	var names []string
	for _, f := range requiredFields {
		if d.fieldValue(f.name) == "" {
			names = append(names, f.display)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("我还需要这些信息：%s。可以补充一下吗？", strings.Join(names, "、"))
}

func (d *Draft) fieldValue(name string) string {
	switch name {
	case "platform":
		return strings.TrimSpace(d.Platform)
	case "account":
		return strings.TrimSpace(d.Account)
	case "password":
		return strings.TrimSpace(d.Password)
	}
	return ""
}
