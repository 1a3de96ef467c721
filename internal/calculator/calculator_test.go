package calculator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kpiboard/internal/model"
)

func exampleSheet() *model.ParsedSheet {
	return &model.ParsedSheet{
		Name: "NV01",
		Rows: []model.ParsedRow{
			{RowNo: 2, ItemName: "A", Weight: 30, Plan: 100, Actual: 80},
			{RowNo: 3, ItemName: "B", Weight: 70, Plan: 50, Actual: 60},
		},
	}
}

func TestScoreSheet_Example(t *testing.T) {
	cases := []struct {
		name       string
		clamp      bool
		scoreB     float64
		totalScore float64
	}{
		{name: "unclamped", clamp: false, scoreB: 0.84, totalScore: 1.08},
		{name: "clamped", clamp: true, scoreB: 0.7, totalScore: 0.94},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ScoreSheet(exampleSheet(), Options{ClampCompletion: tc.clamp})

			require.True(t, res.WeightsNormalized)
			require.Len(t, res.Rows, 2)
			assert.InDelta(t, 0.3, res.Rows[0].WeightNormalized, 1e-9)
			assert.InDelta(t, 0.7, res.Rows[1].WeightNormalized, 1e-9)
			assert.InDelta(t, 0.8, res.Rows[0].CompletionRatio, 1e-9)
			assert.InDelta(t, 1.2, res.Rows[1].CompletionRatio, 1e-9)
			assert.InDelta(t, 0.24, res.Rows[0].Score, 1e-9)
			assert.InDelta(t, tc.scoreB, res.Rows[1].Score, 1e-9)

			assert.Equal(t, "NV01", res.Summary.EmployeeID)
			assert.InDelta(t, tc.totalScore, res.Summary.TotalScore, 1e-9)
			assert.InDelta(t, 150, res.Summary.TotalPlan, 1e-9)
			assert.InDelta(t, 140, res.Summary.TotalActual, 1e-9)
			assert.InDelta(t, 93.33, Round(res.Summary.OverallCompletionPct, 2), 1e-9)
		})
	}
}

func TestScoreSheet_ScoreIsRatioTimesWeight(t *testing.T) {
	sheet := &model.ParsedSheet{
		Name: "NV02",
		Rows: []model.ParsedRow{
			{Weight: 0.5, Plan: 10, Actual: 25},
			{Weight: 0.25, Plan: 0, Actual: 9},
			{Weight: 0.25, Plan: 4, Actual: 1},
		},
	}
	for _, clamp := range []bool{false, true} {
		res := ScoreSheet(sheet, Options{ClampCompletion: clamp})
		require.False(t, res.WeightsNormalized, "sum 1.0 must stay as fractions")
		for _, row := range res.Rows {
			ratio := row.CompletionRatio
			if clamp && ratio > 1 {
				ratio = 1
			}
			assert.InDelta(t, ratio*row.WeightNormalized, row.Score, 1e-12, "clamp=%v", clamp)
		}
		assert.Zero(t, res.Rows[1].CompletionRatio, "plan=0 gives ratio 0")
	}
}

func TestNormalizeWeights_Threshold(t *testing.T) {
	w, scaled := NormalizeWeights([]float64{1.1}, 1.1)
	assert.False(t, scaled, "sum exactly 1.1 is not scaled")
	assert.Equal(t, []float64{1.1}, w)

	w, scaled = NormalizeWeights([]float64{40, 60, 20}, 1.1)
	require.True(t, scaled)
	assert.InDelta(t, 1.2, w[0]+w[1]+w[2], 1e-12)

	w, scaled = NormalizeWeights(nil, 1.1)
	assert.False(t, scaled)
	assert.Empty(t, w)
}

func TestCompletionRatio_ZeroPlan(t *testing.T) {
	assert.Zero(t, CompletionRatio(10, 0))
	assert.Zero(t, CompletionRatio(0, 0))
	assert.Zero(t, CompletionPct(5, 0))
	assert.InDelta(t, 0.5, CompletionRatio(1, 2), 1e-12)
}

func TestRank_StableDescending(t *testing.T) {
	in := []model.SheetSummary{
		{EmployeeID: "a", TotalScore: 0.5},
		{EmployeeID: "b", TotalScore: 0.9},
		{EmployeeID: "c", TotalScore: 0.5},
		{EmployeeID: "d", TotalScore: 1.1},
	}
	got := Rank(in)

	want := []model.RankedSummary{
		{Rank: 1, SheetSummary: in[3]},
		{Rank: 2, SheetSummary: in[1]},
		{Rank: 3, SheetSummary: in[0]},
		{Rank: 4, SheetSummary: in[2]},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	st := Stats([]model.SheetSummary{{TotalScore: 1}, {TotalScore: 3}})
	assert.Equal(t, 2, st.Count)
	assert.InDelta(t, 4, st.Sum, 1e-12)
	assert.InDelta(t, 2, st.Mean, 1e-12)
	assert.InDelta(t, 1, st.Min, 1e-12)
	assert.InDelta(t, 3, st.Max, 1e-12)
	assert.InDelta(t, 1.4142135623730951, st.StdDev, 1e-9)

	assert.Equal(t, model.ScoreStats{}, Stats(nil))
	single := Stats([]model.SheetSummary{{TotalScore: 0.7}})
	assert.Zero(t, single.StdDev)
}
