package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"kpiboard/internal/model"
)

func sampleRanking() []model.RankedSummary {
	return []model.RankedSummary{
		{Rank: 1, SheetSummary: model.SheetSummary{EmployeeID: "NV01", TotalScore: 1.08, TotalPlan: 150, TotalActual: 140, OverallCompletionPct: 93.33333333333333}},
		{Rank: 2, SheetSummary: model.SheetSummary{EmployeeID: "Nguyễn Văn A", TotalScore: 0.123456789, TotalPlan: 1234567.5, TotalActual: 0, OverallCompletionPct: 0}},
	}
}

func assertRoundTrip(t *testing.T, got []model.SheetSummary) {
	t.Helper()
	want := sampleRanking()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].EmployeeID, got[i].EmployeeID)
		assert.InDelta(t, want[i].TotalScore, got[i].TotalScore, 1e-4)
		assert.InDelta(t, want[i].OverallCompletionPct, got[i].OverallCompletionPct, 1e-2)
		assert.InDelta(t, want[i].TotalPlan, got[i].TotalPlan, 1e-6)
		assert.InDelta(t, want[i].TotalActual, got[i].TotalActual, 1e-6)
	}
}

func TestSummaryXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryXLSX(&buf, sampleRanking(), DefaultOptions()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, SummaryColumns, rows[0])
	assert.Equal(t, "93.33", rows[1][2])

	got, err := ReadSummaryXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assertRoundTrip(t, got)
}

func TestSummaryCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, sampleRanking(), Options{ScoreDecimals: 4, PctDecimals: 2}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "employee_id,total_score,overall_completion_pct,total_plan,total_actual", lines[0])
	assert.Equal(t, "NV01,1.08,93.33,150,140", lines[1])

	got, err := ReadSummaryCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assertRoundTrip(t, got)
}

func TestReadSummaryCSV_MissingColumn(t *testing.T) {
	_, err := ReadSummaryCSV(strings.NewReader("employee_id,total_score\nNV01,1\n"))
	require.ErrorIs(t, err, model.ErrMissingColumn)
}

func TestSummaryCSV_WholeNumberRounding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, sampleRanking(), Options{ScoreDecimals: 0, PctDecimals: 0}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NV01,1,93,150,140", strings.TrimSpace(lines[1]))

	buf.Reset()
	require.NoError(t, WriteSummaryCSV(&buf, sampleRanking(), Options{ScoreDecimals: -1, PctDecimals: -1}))
	assert.Contains(t, buf.String(), "NV01,1.08,93.33,")
}

func TestReadSummaryXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadSummaryXLSX(strings.NewReader("plain text"))
	require.ErrorIs(t, err, model.ErrUnparseableFile)
}

func TestExportSummary_DetailSheets(t *testing.T) {
	var stages []ProgressEvent
	f, err := ExportSummary(sampleRanking(), Options{
		IncludeDetails: true,
		Sheets: []model.SheetResult{
			{Name: "NV01", Rows: []model.NormalizedRow{{ItemName: "A", Weight: 30, WeightNormalized: 0.3, Plan: 100, Actual: 80, CompletionRatio: 0.8, Score: 0.24}}},
			{Name: "NV01"},
			{Name: "a/b:c"},
		},
		Progress: func(p ProgressEvent) { stages = append(stages, p) },
	})
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, []string{SummarySheet, "NV01", "NV01 (2)", "a_b_c"}, sheets)

	rows, err := f.GetRows("NV01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "item_name", rows[0][0])
	assert.Equal(t, "0.24", rows[1][6])

	require.NotEmpty(t, stages)
	assert.Equal(t, 100, stages[len(stages)-1].Percent)
}

func TestBuildContentDisposition(t *testing.T) {
	got := BuildContentDisposition("kpi-summary.xlsx", "Tổng hợp KPI.xlsx")
	want := `attachment; filename="kpi-summary.xlsx"; filename*=UTF-8''T%E1%BB%95ng%20h%E1%BB%A3p%20KPI.xlsx`
	assert.Equal(t, want, got)
}
