package importexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/passtalk/passtalk/internal/model"
)

// headerAliases maps each logical column to the header names various
// exporters use for it, checked in order.
var headerAliases = map[string][]string{
	"platform": {"platform", "name", "title"},
	"account":  {"account", "username", "login"},
	"password": {"password", "pass"},
	"note":     {"note", "notes"},
	"tag":      {"tag", "primary_tag"},
}

// MapGenericCSV parses a CSV export with a header row, tolerating the column
// names of common password managers. Rows with every mapped column blank are
// dropped; unknown tag values fall back to "other".
func MapGenericCSV(data []byte) ([]model.EntryPatch, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, col := range records[0] {
		normalized := strings.ToLower(strings.TrimSpace(col))
		if i == 0 {
			normalized = strings.TrimPrefix(normalized, "\ufeff")
		}
		index[normalized] = i
	}

	pick := func(row []string, logical string) string {
		for _, alias := range headerAliases[logical] {
			if i, ok := index[alias]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	var patches []model.EntryPatch
	for _, row := range records[1:] {
		platform := pick(row, "platform")
		account := pick(row, "account")
		password := pick(row, "password")
		note := pick(row, "note")
		tagRaw := pick(row, "tag")

		if platform == "" && account == "" && password == "" && note == "" && tagRaw == "" {
			continue
		}

		tag := model.TagOther
		if parsed := model.ParseTag(tagRaw); parsed != nil {
			tag = *parsed
		}
		patches = append(patches, model.EntryPatch{
			Platform:   platform,
			Account:    account,
			Password:   password,
			Note:       note,
			PrimaryTag: tag,
		})
	}
	return patches, nil
}

// ExportCSVData renders entries as CSV with a fixed header.
func ExportCSVData(entries []model.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"platform", "account", "password", "note", "primary_tag", "secondary_tag", "created_at", "updated_at"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write CSV header: %w", err)
	}

	for _, entry := range entries {
		secondary := ""
		if entry.SecondaryTag != nil {
			secondary = string(*entry.SecondaryTag)
		}
		row := []string{
			entry.Platform,
			entry.Account,
			entry.Password,
			entry.Note,
			string(entry.PrimaryTag),
			secondary,
			strconv.FormatFloat(epochSeconds(entry.CreatedAt), 'f', -1, 64),
			strconv.FormatFloat(epochSeconds(entry.UpdatedAt), 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
