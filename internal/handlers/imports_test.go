package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

func testWorkbook(t *testing.T) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("resources")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().SetString("title")
	row := sheet.AddRow()
	row.AddCell().SetString("Kayak")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func newTestHandler() *ImportsHandler {
	return NewImportsHandler(nil, zerolog.Nop())
}

func TestUploadExcelRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/imports/excel", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newTestHandler().UploadExcel(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "multipart/form-data")
}

func TestUploadExcelRequiresFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("dry_run", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/imports/excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()

	newTestHandler().UploadExcel(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "file is required")
}

func TestUploadExcelRejectsWrongExtension(t *testing.T) {
	body, contentType := multipartUpload(t, "data.csv", []byte("a,b,c"), nil)
	req := httptest.NewRequest(http.MethodPost, "/imports/excel", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	newTestHandler().UploadExcel(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "only .xlsx files are accepted")
}

func TestUploadExcelRejectsCorruptWorkbook(t *testing.T) {
	body, contentType := multipartUpload(t, "data.xlsx", []byte("not a workbook"), map[string]string{"dry_run": "true"})
	req := httptest.NewRequest(http.MethodPost, "/imports/excel", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	newTestHandler().UploadExcel(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "IMPORT_FAILED")
}

func TestUploadExcelDryRun(t *testing.T) {
	body, contentType := multipartUpload(t, "import.xlsx", testWorkbook(t), map[string]string{"dry_run": "true"})
	req := httptest.NewRequest(http.MethodPost, "/imports/excel", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	newTestHandler().UploadExcel(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, true, summary["dry_run"])
	assert.Equal(t, float64(1), summary["inserted"])
	assert.Equal(t, float64(0), summary["errors"])
}

func TestIsXLSX(t *testing.T) {
	mk := func(name, contentType string) *multipart.FileHeader {
		h := &multipart.FileHeader{Filename: name, Header: textproto.MIMEHeader{}}
		if contentType != "" {
			h.Header.Set("Content-Type", contentType)
		}
		return h
	}

	assert.True(t, isXLSX(mk("a.xlsx", "")))
	assert.True(t, isXLSX(mk("A.XLSX", "application/octet-stream")))
	assert.True(t, isXLSX(mk("a.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")))
	assert.False(t, isXLSX(mk("a.csv", "")))
	assert.False(t, isXLSX(mk("a.xlsx", "text/plain")))
}
