package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/passtalk/passtalk/internal/model"
)

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateRecordUUID validates an entry record UUID.
func ValidateRecordUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid record UUID format")
	}
	return nil
}

// ValidateEntryPatch validates the writable fields of an entry.
func ValidateEntryPatch(patch *model.EntryPatch) error {
	if patch.Platform == "" {
		return errors.New("platform cannot be empty")
	}
	if patch.Account == "" {
		return errors.New("account cannot be empty")
	}
	if patch.Password == "" {
		return errors.New("password cannot be empty")
	}
	for _, field := range []string{patch.Platform, patch.Account, patch.Password, patch.Note} {
		if len(field) > 4096 {
			return errors.New("field exceeds maximum length")
		}
		if !utf8.ValidString(field) {
			return errors.New("fields must be valid UTF-8")
		}
	}
	if model.ParseTag(string(patch.PrimaryTag)) == nil {
		return errors.New("invalid primary tag")
	}
	if patch.SecondaryTag != nil && model.ParseTag(string(*patch.SecondaryTag)) == nil {
		return errors.New("invalid secondary tag")
	}
	return nil
}
