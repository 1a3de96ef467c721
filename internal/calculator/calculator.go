package calculator

import (
	"math"

	"kpiboard/internal/model"
)

// DefaultWeightPercentThreshold 权重和超过该值时认为以百分数录入
const DefaultWeightPercentThreshold = 1.1

// Options 计分参数
type Options struct {
	ClampCompletion        bool    // 完成率截断到 1.0 后再乘权重
	WeightPercentThreshold float64 // <=0 时使用默认值
}

// OptionsFrom 从运行配置构造计分参数
func OptionsFrom(o model.ScoringOptions) Options {
	return Options{
		ClampCompletion:        o.ClampCompletion,
		WeightPercentThreshold: o.WeightPercentThreshold,
	}
}

func (o Options) threshold() float64 {
	if o.WeightPercentThreshold <= 0 {
		return DefaultWeightPercentThreshold
	}
	return o.WeightPercentThreshold
}

// NormalizeWeights 权重和严格大于阈值时全部除以 100
func NormalizeWeights(weights []float64, threshold float64) ([]float64, bool) {
	out := make([]float64, len(weights))
	sum := 0.0
	for i, w := range weights {
		out[i] = finite(w)
		sum += out[i]
	}
	if sum <= threshold {
		return out, false
	}
	for i := range out {
		out[i] /= 100
	}
	return out, true
}

// CompletionRatio 完成率 actual/plan；plan 为 0 或结果非有限值时为 0
func CompletionRatio(actual, plan float64) float64 {
	if plan == 0 {
		return 0
	}
	return finite(actual / plan)
}

// RowScore 行得分
func RowScore(ratio, weight float64, clamp bool) float64 {
	if clamp && ratio > 1 {
		ratio = 1
	}
	return finite(ratio * weight)
}

// CompletionPct 总完成率（百分比）
func CompletionPct(totalActual, totalPlan float64) float64 {
	return CompletionRatio(totalActual, totalPlan) * 100
}

// ScoreSheet 计算单个 sheet 的行得分与汇总
func ScoreSheet(sheet *model.ParsedSheet, opts Options) model.SheetResult {
	weights := make([]float64, len(sheet.Rows))
	for i, r := range sheet.Rows {
		weights[i] = r.Weight
	}
	normalized, scaled := NormalizeWeights(weights, opts.threshold())

	result := model.SheetResult{
		Name:              sheet.Name,
		Mapping:           sheet.Mapping,
		Rows:              make([]model.NormalizedRow, len(sheet.Rows)),
		WeightsNormalized: scaled,
		Warnings:          sheet.Warnings,
	}

	summary := model.SheetSummary{EmployeeID: sheet.Name}
	for i, r := range sheet.Rows {
		ratio := CompletionRatio(r.Actual, r.Plan)
		score := RowScore(ratio, normalized[i], opts.ClampCompletion)
		result.Rows[i] = model.NormalizedRow{
			RowNo:            r.RowNo,
			ItemName:         r.ItemName,
			Weight:           r.Weight,
			WeightNormalized: normalized[i],
			Plan:             r.Plan,
			Actual:           r.Actual,
			CompletionRatio:  ratio,
			Score:            score,
		}
		summary.TotalScore += score
		summary.TotalPlan += r.Plan
		summary.TotalActual += r.Actual
	}
	summary.OverallCompletionPct = CompletionPct(summary.TotalActual, summary.TotalPlan)
	result.Summary = summary
	return result
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
