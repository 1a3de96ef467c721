package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kpiboard/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "kpiboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNew_MigratesSchema(t *testing.T) {
	s := newTestStore(t)

	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestNew_ReopenIsNoChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpiboard.db")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SetConfig("k", "v"))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.GetConfig("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestConfig_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetConfig("missing")
	require.True(t, errors.Is(err, ErrConfigNotFound))

	require.NoError(t, s.SetConfig("a", "1"))
	require.NoError(t, s.SetConfig("a", "2"))
	n, err := s.GetConfigInt("a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.DeleteConfig("a"))
	all, err := s.GetAllConfig()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestScoringOverrides(t *testing.T) {
	s := newTestStore(t)
	base := model.DefaultScoringOptions()

	got, err := s.ApplyScoringOverrides(base)
	require.NoError(t, err)
	assert.Equal(t, base, got)

	want := base
	want.ClampCompletion = true
	want.FailurePolicy = model.FailureSkip
	want.WeightPercentThreshold = 1.5
	want.HeaderScanRows = 10
	require.NoError(t, s.SaveScoringOverrides(want))

	got, err = s.ApplyScoringOverrides(base)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.SetConfig(model.ConfigKeyHeaderScanRows, "abc"))
	got, err = s.ApplyScoringOverrides(base)
	require.NoError(t, err)
	assert.Equal(t, base.HeaderScanRows, got.HeaderScanRows)
}

func TestImportLogAndSheetMeta(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateImportLog("kpi.xlsx", 1024, "abc", "skip", false)
	require.NoError(t, err)

	require.NoError(t, s.InsertSheetMeta(SheetMeta{
		ImportLogID:       id,
		SheetName:         "NV01",
		HeaderRow:         2,
		ColumnsJSON:       BuildColumnsJSON([]string{"Chỉ tiêu", "Trọng số"}),
		ColumnMappingJSON: BuildMappingJSON(map[model.ColumnRole]int{model.RoleWeight: 1}),
		TotalRows:         3,
		Status:            "imported",
	}))
	require.NoError(t, s.InsertSheetMeta(SheetMeta{
		ImportLogID:  id,
		SheetName:    "NV02",
		Status:       "error",
		ErrorMessage: "missing column",
	}))
	require.NoError(t, s.UpdateImportLog(id, ImportOutcome{
		Status: "partial", TotalSheets: 2, ScoredSheets: 1, SkippedSheets: 1, TotalRows: 3,
	}))

	logs, err := s.ListImportLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "partial", logs[0].Status)
	assert.Equal(t, 1, logs[0].SkippedSheets)
	assert.NotNil(t, logs[0].CompletedAt)

	metas, err := s.ListSheetMeta(id)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "NV01", metas[0].SheetName)
	assert.Equal(t, `{"Weight":1}`, metas[0].ColumnMappingJSON)
	assert.Equal(t, "[]", metas[1].ColumnsJSON)

	hist, err := s.ListSheetHistory()
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "NV01", hist[0].SheetName)
	assert.Equal(t, "error", hist[1].LastStatus)
	assert.Equal(t, 1, hist[1].Failures)
}
