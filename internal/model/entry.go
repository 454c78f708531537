package model

import (
	"time"
)

// PresetTag is one of the fixed credential categories.
type PresetTag string

const (
	TagSocial        PresetTag = "social"
	TagShopping      PresetTag = "shopping"
	TagFinance       PresetTag = "finance"
	TagWork          PresetTag = "work"
	TagEntertainment PresetTag = "entertainment"
	TagEmail         PresetTag = "email"
	TagDevtools      PresetTag = "devtools"
	TagOther         PresetTag = "other"
)

// PresetTags lists every valid tag value.
var PresetTags = []PresetTag{
	TagSocial, TagShopping, TagFinance, TagWork,
	TagEntertainment, TagEmail, TagDevtools, TagOther,
}

// ParseTag maps a raw string to a PresetTag. Invalid values yield nil rather
// than an error so a sloppy model response degrades instead of failing.
func ParseTag(raw string) *PresetTag {
	for _, t := range PresetTags {
		if string(t) == raw {
			tag := t
			return &tag
		}
	}
	return nil
}

// SyncState tracks per-record sync bookkeeping. Records are written with a
// state but never synced in this version.
type SyncState string

const (
	SyncLocalOnly     SyncState = "local_only"
	SyncPendingUpload SyncState = "pending_upload"
	SyncSynced        SyncState = "synced"
	SyncConflict      SyncState = "conflict"
)

// ParseSyncState maps a raw string to a SyncState, defaulting to local_only.
func ParseSyncState(raw string) SyncState {
	switch SyncState(raw) {
	case SyncPendingUpload, SyncSynced, SyncConflict:
		return SyncState(raw)
	default:
		return SyncLocalOnly
	}
}

// Entry is a stored credential record.
type Entry struct {
	ID              int64      `json:"id"`
	RecordUUID      string     `json:"record_uuid"`
	Platform        string     `json:"platform"`
	Account         string     `json:"account"`
	Password        string     `json:"password"`
	Note            string     `json:"note"`
	PrimaryTag      PresetTag  `json:"primary_tag"`
	SecondaryTag    *PresetTag `json:"secondary_tag,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	SyncVersion     int        `json:"sync_version"`
	IsDeleted       bool       `json:"is_deleted"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	UpdatedByDevice string     `json:"updated_by_device"`
	SyncState       SyncState  `json:"sync_state"`
}

// EntryPatch is the writable subset of an entry handed to the store on
// create and update.
type EntryPatch struct {
	Platform     string     `json:"platform"`
	Account      string     `json:"account"`
	Password     string     `json:"password"`
	Note         string     `json:"note"`
	PrimaryTag   PresetTag  `json:"primary_tag"`
	SecondaryTag *PresetTag `json:"secondary_tag,omitempty"`
}

// ListEntriesResponse is the response for listing or searching entries.
type ListEntriesResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}
