package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"rental-inventory-api/internal/respond"
	"rental-inventory-api/pkg/importer"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// ImportsHandler handles Excel bulk imports into the rental collections.
type ImportsHandler struct {
	DB       *mongo.Database
	Log      zerolog.Logger
	MaxBytes int64
}

func NewImportsHandler(db *mongo.Database, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		DB:       db,
		Log:      log,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// UploadExcel accepts a multipart .xlsx upload. dry_run=true parses the
// workbook without writing anything.
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		http.Error(w, "content-type must be multipart/form-data", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 0
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		http.Error(w, "only .xlsx files are accepted", http.StatusBadRequest)
		return
	}

	sum, impErr := importer.ImportExcel(r.Context(), h.DB, file, importer.ImportOptions{
		DryRun:    dryRun,
		MaxErrors: maxErrors,
	})
	if impErr != nil {
		h.Log.Error().Err(impErr).Msg("excel import failed")
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum,
		})
		return
	}
	respond.JSON(w, http.StatusOK, sum)
}

// isXLSX checks the filename extension and, when present, the declared
// content type.
func isXLSX(header *multipart.FileHeader) bool {
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		return false
	}
	ct := header.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	return strings.Contains(ct, "spreadsheet") || strings.Contains(ct, "octet-stream") || strings.Contains(ct, "zip")
}
