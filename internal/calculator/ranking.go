package calculator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"kpiboard/internal/model"
)

// Rank 按总分降序排名；同分保持输入顺序
func Rank(summaries []model.SheetSummary) []model.RankedSummary {
	ranked := make([]model.RankedSummary, len(summaries))
	for i, s := range summaries {
		ranked[i] = model.RankedSummary{SheetSummary: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Stats 总分描述统计
func Stats(summaries []model.SheetSummary) model.ScoreStats {
	if len(summaries) == 0 {
		return model.ScoreStats{}
	}
	scores := make([]float64, len(summaries))
	for i, s := range summaries {
		scores[i] = s.TotalScore
	}

	st := model.ScoreStats{
		Count: len(scores),
		Sum:   floats.Sum(scores),
		Mean:  stat.Mean(scores, nil),
		Min:   floats.Min(scores),
		Max:   floats.Max(scores),
	}
	if len(scores) > 1 {
		st.StdDev = stat.StdDev(scores, nil)
	}
	if math.IsNaN(st.StdDev) {
		st.StdDev = 0
	}
	return st
}

// Round 四舍五入到指定小数位
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
