package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kpiboard/internal/model"
)

func sampleResult() *model.WorkbookResult {
	return &model.WorkbookResult{
		Sheets: []model.SheetResult{{
			Name: "NV01",
			Rows: []model.NormalizedRow{
				{RowNo: 2, ItemName: "Doanh số", Plan: 100, Actual: 80},
				{RowNo: 3, Plan: 50, Actual: 60},
			},
			Summary: model.SheetSummary{EmployeeID: "NV01", TotalScore: 1.08, OverallCompletionPct: 93.33},
		}},
		Ranking: []model.RankedSummary{{Rank: 1, SheetSummary: model.SheetSummary{EmployeeID: "NV01", TotalScore: 1.08}}},
	}
}

func TestRenderDashboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, sampleResult()))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "NV01")
	assert.Contains(t, html, "#3")
}

func TestRenderDashboard_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, nil))
	assert.NotEmpty(t, buf.String())
}

func TestPlanActualChart_UnnamedItems(t *testing.T) {
	var buf bytes.Buffer
	bar := PlanActualChart(sampleResult().Sheets[0])
	require.NoError(t, RenderChart(&buf, bar))
	assert.Contains(t, buf.String(), "NV01")
}

func TestRankingChart_ScoreOnly(t *testing.T) {
	ranked := []model.RankedSummary{
		{Rank: 1, SheetSummary: model.SheetSummary{EmployeeID: "NV01", TotalScore: 1.08, OverallCompletionPct: 93.33}},
		{Rank: 2, SheetSummary: model.SheetSummary{EmployeeID: "NV02", TotalScore: 0.75, OverallCompletionPct: 120}},
	}

	score := RankingChart(ranked)
	require.Len(t, score.MultiSeries, 1)
	assert.Equal(t, "Tổng điểm", score.MultiSeries[0].Name)

	pct := CompletionChart(ranked)
	require.Len(t, pct.MultiSeries, 1)
	assert.Equal(t, "% hoàn thành", pct.MultiSeries[0].Name)

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, pct))
	assert.Contains(t, buf.String(), "120")
}
