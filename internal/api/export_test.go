package api

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kpiboard/internal/exporter"
)

type exportResponse struct {
	Token       string `json:"token"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
}

func TestExport_XLSXRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/score", scoreBody(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	scored := decodeJSON[summaryResponse](t, w)
	hdr := map[string]string{SessionHeader: scored.SessionID}

	w = s.do(t, http.MethodPost, "/api/export", gin.H{"format": "xlsx", "includeDetails": true}, hdr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	exp := decodeJSON[exportResponse](t, w)
	assert.Equal(t, "kpi_summary_thang10.xlsx", exp.FileName)
	require.True(t, strings.HasPrefix(exp.DownloadURL, "/api/export/download/"))

	w = s.do(t, http.MethodGet, exp.DownloadURL, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "kpi_summary_thang10.xlsx")
	assert.Equal(t, exporter.ContentType("xlsx"), w.Header().Get("Content-Type"))

	got, err := exporter.ReadSummaryXLSX(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, r := range scored.Ranking {
		assert.Equal(t, r.EmployeeID, got[i].EmployeeID)
		assert.InDelta(t, r.TotalScore, got[i].TotalScore, 1e-4)
		assert.InDelta(t, r.OverallCompletionPct, got[i].OverallCompletionPct, 1e-2)
		assert.InDelta(t, r.TotalPlan, got[i].TotalPlan, 1e-9)
		assert.InDelta(t, r.TotalActual, got[i].TotalActual, 1e-9)
	}

	// 一次性链接
	w = s.do(t, http.MethodGet, exp.DownloadURL, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport_CSV(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/score", scoreBody(), nil)
	hdr := map[string]string{SessionHeader: w.Header().Get(SessionHeader)}

	w = s.do(t, http.MethodPost, "/api/export", gin.H{"format": "CSV"}, hdr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	exp := decodeJSON[exportResponse](t, w)

	w = s.do(t, http.MethodGet, exp.DownloadURL, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, exporter.ContentType("csv"), w.Header().Get("Content-Type"))

	got, err := exporter.ReadSummaryCSV(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NV01", got[0].EmployeeID)
}

func TestExport_RejectsUnknownFormat(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/score", scoreBody(), nil)
	hdr := map[string]string{SessionHeader: w.Header().Get(SessionHeader)}

	w = s.do(t, http.MethodPost, "/api/export", gin.H{"format": "pdf"}, hdr)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport_WithoutResult(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/export", gin.H{"format": "xlsx"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportStream_EmitsDownloadURL(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/score", scoreBody(), nil)
	hdr := map[string]string{SessionHeader: w.Header().Get(SessionHeader)}

	w = s.do(t, http.MethodPost, "/api/export/stream?format=xlsx&includeDetails=true", nil, hdr)
	require.Equal(t, http.StatusOK, w.Code)

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "start", events[0].Type)
	last := events[len(events)-1]
	require.Equal(t, "done", last.Type)
	assert.Contains(t, string(last.Data), "/api/export/download/")
	assert.Equal(t, 1, s.handler.downloads.count())
}

func TestExportDownloadStore_ExpiredTokenRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/expired.xlsx"
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	now := time.Now()
	ds := newExportDownloadStore()
	ds.now = func() time.Time { return now }
	token := ds.put(exportDownload{filePath: path, fileName: "a.xlsx", format: "xlsx"}, time.Minute)

	now = now.Add(2 * time.Minute)
	_, ok := ds.take(token)
	assert.False(t, ok)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "kpi_summary_thang10.xlsx", exportFileName("/tmp/thang10.xlsx", "xlsx"))
	assert.Equal(t, "kpi_summary.csv", exportFileName("", "csv"))
}
