package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/passtalk/passtalk/internal/model"
)

// Entries is the credential store backed by the password_entries table.
// Deletes are soft: rows are flagged and kept for sync bookkeeping.
type Entries struct {
	db       *DB
	deviceID string
}

// NewEntries creates the credential store. deviceID is recorded on every
// write as the mutating device.
func NewEntries(db *DB, deviceID string) *Entries {
	return &Entries{db: db, deviceID: deviceID}
}

const entryColumns = `id, record_uuid, platform, account, password, note,
	primary_tag, secondary_tag, created_at, updated_at,
	sync_version, is_deleted, deleted_at, updated_by_device, sync_state`

// Create inserts a new entry and returns its record UUID.
func (e *Entries) Create(patch model.EntryPatch) (string, error) {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	recordUUID := uuid.Must(uuid.NewV7()).String()

	_, err := e.db.conn.Exec(`
		INSERT INTO password_entries (
			record_uuid, platform, account, password, note,
			primary_tag, secondary_tag, created_at, updated_at,
			sync_version, is_deleted, deleted_at, updated_by_device, sync_state
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, NULL, ?, ?)`,
		recordUUID, patch.Platform, patch.Account, patch.Password, patch.Note,
		string(patch.PrimaryTag), tagOrNil(patch.SecondaryTag), now, now,
		e.deviceID, string(model.SyncLocalOnly),
	)
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}
	return recordUUID, nil
}

// Update overwrites the writable fields of an entry, bumps its sync version
// and marks it pending upload.
func (e *Entries) Update(recordUUID string, patch model.EntryPatch) error {
	now := float64(time.Now().UnixNano()) / float64(time.Second)

	res, err := e.db.conn.Exec(`
		UPDATE password_entries
		SET platform = ?, account = ?, password = ?, note = ?,
			primary_tag = ?, secondary_tag = ?, updated_at = ?,
			sync_version = sync_version + 1,
			updated_by_device = ?, sync_state = ?
		WHERE record_uuid = ?`,
		patch.Platform, patch.Account, patch.Password, patch.Note,
		string(patch.PrimaryTag), tagOrNil(patch.SecondaryTag), now,
		e.deviceID, string(model.SyncPendingUpload), recordUUID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s not found", recordUUID)
	}
	return nil
}

// Delete soft-deletes an entry.
func (e *Entries) Delete(recordUUID string) error {
	now := float64(time.Now().UnixNano()) / float64(time.Second)

	res, err := e.db.conn.Exec(`
		UPDATE password_entries
		SET is_deleted = 1, deleted_at = ?, updated_at = ?,
			sync_version = sync_version + 1,
			updated_by_device = ?, sync_state = ?
		WHERE record_uuid = ?`,
		now, now, e.deviceID, string(model.SyncPendingUpload), recordUUID,
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s not found", recordUUID)
	}
	return nil
}

// Get fetches one entry by record UUID. A missing entry returns (nil, nil).
func (e *Entries) Get(recordUUID string) (*model.Entry, error) {
	row := e.db.conn.QueryRow(
		`SELECT `+entryColumns+` FROM password_entries WHERE record_uuid = ? LIMIT 1`,
		recordUUID,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns entries ordered by most recently updated.
func (e *Entries) List(includeDeleted bool) ([]model.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM password_entries WHERE is_deleted = 0 ORDER BY updated_at DESC`
	if includeDeleted {
		query = `SELECT ` + entryColumns + ` FROM password_entries ORDER BY updated_at DESC`
	}

	rows, err := e.db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Search fuzzy-matches the keyword across platform, account, note and tags,
// optionally restricted to one tag. An empty keyword matches everything.
func (e *Entries) Search(keyword string, tag *model.PresetTag) ([]model.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM password_entries WHERE is_deleted = 0`
	var args []any

	if keyword != "" {
		query += ` AND (platform LIKE ? OR account LIKE ? OR note LIKE ? OR primary_tag LIKE ? OR secondary_tag LIKE ?)`
		fuzzy := "%" + keyword + "%"
		args = append(args, fuzzy, fuzzy, fuzzy, fuzzy, fuzzy)
	}
	if tag != nil {
		query += ` AND (primary_tag = ? OR secondary_tag = ?)`
		args = append(args, string(*tag), string(*tag))
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := e.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.Entry, error) {
	var (
		entry        model.Entry
		secondaryTag sql.NullString
		createdAt    float64
		updatedAt    float64
		deletedAt    sql.NullFloat64
		primaryTag   string
		syncState    string
		isDeleted    int
	)

	err := row.Scan(
		&entry.ID, &entry.RecordUUID, &entry.Platform, &entry.Account,
		&entry.Password, &entry.Note, &primaryTag, &secondaryTag,
		&createdAt, &updatedAt, &entry.SyncVersion, &isDeleted,
		&deletedAt, &entry.UpdatedByDevice, &syncState,
	)
	if err != nil {
		return nil, err
	}

	if tag := model.ParseTag(primaryTag); tag != nil {
		entry.PrimaryTag = *tag
	} else {
		entry.PrimaryTag = model.TagOther
	}
	if secondaryTag.Valid {
		entry.SecondaryTag = model.ParseTag(secondaryTag.String)
	}
	entry.CreatedAt = epochToTime(createdAt)
	entry.UpdatedAt = epochToTime(updatedAt)
	entry.IsDeleted = isDeleted == 1
	if deletedAt.Valid {
		t := epochToTime(deletedAt.Float64)
		entry.DeletedAt = &t
	}
	entry.SyncState = model.ParseSyncState(syncState)

	return &entry, nil
}

func collectEntries(rows *sql.Rows) ([]model.Entry, error) {
	var out []model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

func tagOrNil(tag *model.PresetTag) any {
	if tag == nil {
		return nil
	}
	return string(*tag)
}

func epochToTime(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*float64(time.Second)))
}
