package model

// ScoringOptions 计分参数
type ScoringOptions struct {
	ClampCompletion        bool          `json:"clampCompletion"`        // 完成率是否截断到 1.0
	WeightPercentThreshold float64       `json:"weightPercentThreshold"` // 权重和超过该值时视为百分数
	HeaderScanRows         int           `json:"headerScanRows"`         // 表头探测扫描行数
	FailurePolicy          FailurePolicy `json:"failurePolicy"`
	ScoreDecimals          int           `json:"scoreDecimals"`
	PctDecimals            int           `json:"pctDecimals"`
}

// DefaultScoringOptions 默认计分参数
func DefaultScoringOptions() ScoringOptions {
	return ScoringOptions{
		ClampCompletion:        false,
		WeightPercentThreshold: 1.1,
		HeaderScanRows:         30,
		FailurePolicy:          FailureAbort,
		ScoreDecimals:          4,
		PctDecimals:            2,
	}
}

// Config 运行期可覆盖的配置键
const (
	ConfigKeyClampCompletion        = "clamp_completion"
	ConfigKeyWeightPercentThreshold = "weight_percent_threshold"
	ConfigKeyHeaderScanRows         = "header_scan_rows"
	ConfigKeyFailurePolicy          = "failure_policy"
)
