package model

import "time"

// FailurePolicy sheet 解析失败时的处理策略
type FailurePolicy string

const (
	FailureAbort FailurePolicy = "abort" // 任一 sheet 失败则整个工作簿失败
	FailureSkip  FailurePolicy = "skip"  // 跳过失败 sheet，继续处理其余
)

// ParseFailurePolicy 解析策略字符串，未知值回退为 abort
func ParseFailurePolicy(s string) FailurePolicy {
	if FailurePolicy(s) == FailureSkip {
		return FailureSkip
	}
	return FailureAbort
}

// Sheet 处理状态
const (
	SheetStatusScored  = "scored"
	SheetStatusSkipped = "skipped"
	SheetStatusError   = "error"
)

// SheetReport 单个 sheet 的处理报告
type SheetReport struct {
	SheetName string        `json:"sheetName"`
	Status    string        `json:"status"` // scored/skipped/error
	HeaderRow int           `json:"headerRow"`
	Rows      int           `json:"rows"`
	Warnings  []string      `json:"warnings,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// SkippedSheet 被跳过的 sheet
type SkippedSheet struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ScoreStats 总分的描述统计
type ScoreStats struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// WorkbookResult 整个工作簿的处理结果
type WorkbookResult struct {
	ImportID  int64           `json:"importId,omitempty"`
	FileName  string          `json:"fileName"`
	Sheets    []SheetResult   `json:"sheets"`
	Ranking   []RankedSummary `json:"ranking"`
	Stats     ScoreStats      `json:"stats"`
	Reports   []SheetReport   `json:"reports"`
	Skipped   []SkippedSheet  `json:"skipped,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Options   ScoringOptions  `json:"options"`
	Duration  time.Duration   `json:"duration"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Sheet 按名称查找 sheet 结果
func (r *WorkbookResult) Sheet(name string) (*SheetResult, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Sheets {
		if r.Sheets[i].Name == name {
			return &r.Sheets[i], true
		}
	}
	return nil, false
}
