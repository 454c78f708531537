// Package importexport converts credential entries to and from interchange
// formats: generic CSV, PassTalk JSON, and Bitwarden / 1Password exports.
package importexport

import (
	"errors"
	"fmt"

	"github.com/passtalk/passtalk/internal/model"
	"github.com/passtalk/passtalk/pkg/metrics"
)

// ImportFormat identifies a supported import source.
type ImportFormat string

const (
	ImportCSV         ImportFormat = "csv"
	ImportJSON        ImportFormat = "json"
	ImportBitwarden   ImportFormat = "bitwarden"
	ImportOnePassword ImportFormat = "1password"
)

// ExportFormat identifies a supported export target.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ErrUnsupportedFormat is returned for an unrecognized format name.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ImportReport summarizes one import run.
type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// EntrySink receives imported entries.
type EntrySink interface {
	Create(patch model.EntryPatch) (string, error)
}

// EntrySource supplies entries for export.
type EntrySource interface {
	List(includeDeleted bool) ([]model.Entry, error)
}

// Importer maps raw interchange data into stored entries.
type Importer struct {
	sink EntrySink
}

// NewImporter creates an importer writing to sink.
func NewImporter(sink EntrySink) *Importer {
	return &Importer{sink: sink}
}

// Import parses data in the given format and stores the resulting entries.
// Rows without both a platform and an account are counted as skipped.
func (i *Importer) Import(data []byte, format ImportFormat) (ImportReport, error) {
	var patches []model.EntryPatch
	var err error

	switch format {
	case ImportCSV:
		patches, err = MapGenericCSV(data)
	case ImportJSON:
		patches, err = MapPassTalkJSON(data)
	case ImportBitwarden:
		patches, err = MapBitwarden(data)
	case ImportOnePassword:
		patches, err = MapOnePassword(data)
	default:
		return ImportReport{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return ImportReport{}, err
	}

	var report ImportReport
	for _, patch := range patches {
		if patch.Platform == "" || patch.Account == "" {
			report.Skipped++
			continue
		}
		if _, err := i.sink.Create(patch); err != nil {
			return report, fmt.Errorf("store imported entry: %w", err)
		}
		report.Imported++
	}

	metrics.RecordEntriesImported(string(format), report.Imported)
	return report, nil
}

// Exporter renders stored entries into an interchange format.
type Exporter struct {
	source EntrySource
}

// NewExporter creates an exporter reading from source.
func NewExporter(source EntrySource) *Exporter {
	return &Exporter{source: source}
}

// Export renders all live entries in the given format.
func (e *Exporter) Export(format ExportFormat) ([]byte, error) {
	entries, err := e.source.List(false)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	switch format {
	case ExportCSV:
		return ExportCSVData(entries)
	case ExportJSON:
		return ExportJSONData(entries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
