package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/passtalk/passtalk/internal/importexport"
	"github.com/passtalk/passtalk/pkg/logger"
)

// maxImportBytes bounds an uploaded import file.
const maxImportBytes = 16 << 20

// ImportExportHandler handles bulk entry import and export.
type ImportExportHandler struct {
	importer *importexport.Importer
	exporter *importexport.Exporter
	logger   *logger.Logger
}

// NewImportExportHandler creates a new import/export handler.
func NewImportExportHandler(importer *importexport.Importer, exporter *importexport.Exporter, log *logger.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		importer: importer,
		exporter: exporter,
		logger:   log,
	}
}

// Import handles POST /api/v1/entries/import?format=csv|json|bitwarden|1password
func (h *ImportExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	format := importexport.ImportFormat(r.URL.Query().Get("format"))

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	report, err := h.importer.Import(data, format)
	if err != nil {
		if errors.Is(err, importexport.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("import failed")
		writeError(w, http.StatusUnprocessableEntity, "import failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Export handles GET /api/v1/entries/export?format=csv|json
func (h *ImportExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := importexport.ExportFormat(r.URL.Query().Get("format"))

	data, err := h.exporter.Export(format)
	if err != nil {
		if errors.Is(err, importexport.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	contentType := "application/json"
	filename := "passtalk-export.json"
	if format == importexport.ExportCSV {
		contentType = "text/csv"
		filename = "passtalk-export.csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
