package importexport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/passtalk/passtalk/internal/model"
)

// passTalkJSONEntry is the native interchange shape.
type passTalkJSONEntry struct {
	Platform     string  `json:"platform"`
	Account      string  `json:"account"`
	Password     string  `json:"password"`
	Note         *string `json:"note,omitempty"`
	PrimaryTag   *string `json:"primaryTag,omitempty"`
	SecondaryTag *string `json:"secondaryTag,omitempty"`
}

// MapPassTalkJSON parses the native JSON export format.
func MapPassTalkJSON(data []byte) ([]model.EntryPatch, error) {
	var payload []passTalkJSONEntry
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse PassTalk JSON: %w", err)
	}

	patches := make([]model.EntryPatch, 0, len(payload))
	for _, item := range payload {
		tag := model.TagOther
		if item.PrimaryTag != nil {
			if parsed := model.ParseTag(*item.PrimaryTag); parsed != nil {
				tag = *parsed
			}
		}
		var secondary *model.PresetTag
		if item.SecondaryTag != nil {
			secondary = model.ParseTag(*item.SecondaryTag)
		}
		note := ""
		if item.Note != nil {
			note = *item.Note
		}
		patches = append(patches, model.EntryPatch{
			Platform:     item.Platform,
			Account:      item.Account,
			Password:     item.Password,
			Note:         note,
			PrimaryTag:   tag,
			SecondaryTag: secondary,
		})
	}
	return patches, nil
}

// MapBitwarden parses a Bitwarden JSON export: {items: [{name, login:
// {username, password}, notes}]}. Items without a login block are dropped.
func MapBitwarden(data []byte) ([]model.EntryPatch, error) {
	var root struct {
		Items []struct {
			Name  string `json:"name"`
			Notes string `json:"notes"`
			Login *struct {
				Username string `json:"username"`
				Password string `json:"password"`
			} `json:"login"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse Bitwarden JSON: %w", err)
	}

	var patches []model.EntryPatch
	for _, item := range root.Items {
		if item.Login == nil {
			continue
		}
		patches = append(patches, model.EntryPatch{
			Platform:   item.Name,
			Account:    item.Login.Username,
			Password:   item.Login.Password,
			Note:       item.Notes,
			PrimaryTag: model.TagOther,
		})
	}
	return patches, nil
}

// MapOnePassword parses a 1Password JSON export: an array of items whose
// credential fields are designated "username" and "password".
func MapOnePassword(data []byte) ([]model.EntryPatch, error) {
	var root []struct {
		Title      string `json:"title"`
		NotesPlain string `json:"notesPlain"`
		Fields     []struct {
			Designation string `json:"designation"`
			Value       string `json:"value"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse 1Password JSON: %w", err)
	}

	patches := make([]model.EntryPatch, 0, len(root))
	for _, item := range root {
		var account, password string
		for _, field := range item.Fields {
			switch field.Designation {
			case "username":
				if account == "" {
					account = field.Value
				}
			case "password":
				if password == "" {
					password = field.Value
				}
			}
		}
		patches = append(patches, model.EntryPatch{
			Platform:   item.Title,
			Account:    account,
			Password:   password,
			Note:       item.NotesPlain,
			PrimaryTag: model.TagOther,
		})
	}
	return patches, nil
}

// ExportJSONData renders entries in the native JSON format.
func ExportJSONData(entries []model.Entry) ([]byte, error) {
	payload := make([]passTalkJSONEntry, 0, len(entries))
	for _, entry := range entries {
		note := entry.Note
		primary := string(entry.PrimaryTag)
		item := passTalkJSONEntry{
			Platform:   entry.Platform,
			Account:    entry.Account,
			Password:   entry.Password,
			Note:       &note,
			PrimaryTag: &primary,
		}
		if entry.SecondaryTag != nil {
			secondary := string(*entry.SecondaryTag)
			item.SecondaryTag = &secondary
		}
		payload = append(payload, item)
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode JSON export: %w", err)
	}
	return out, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
