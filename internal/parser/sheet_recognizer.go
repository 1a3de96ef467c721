package parser

// DefaultHeaderScanRows 表头探测默认扫描行数
const DefaultHeaderScanRows = 30

// HeaderDetection 表头行探测结果
type HeaderDetection struct {
	Row      int   `json:"row"`
	Score    int   `json:"score"`
	Scores   []int `json:"scores"`
	Fallback bool  `json:"fallback"`
}

// SheetRecognizer 表头行识别器
type SheetRecognizer struct {
	mapper  *FieldMapper
	maxScan int
}

// NewSheetRecognizer 创建识别器；maxScan<=0 时使用默认值
func NewSheetRecognizer(mapper *FieldMapper, maxScan int) *SheetRecognizer {
	if mapper == nil {
		mapper = NewFieldMapper()
	}
	if maxScan <= 0 {
		maxScan = DefaultHeaderScanRows
	}
	return &SheetRecognizer{mapper: mapper, maxScan: maxScan}
}

// DetectHeaderRow 在前 maxScan 行中选出角色族命中最多的行
// 同分取靠前的行；全部为 0 时回退到第 0 行并标记 Fallback
func (r *SheetRecognizer) DetectHeaderRow(rows [][]string) HeaderDetection {
	limit := len(rows)
	if limit > r.maxScan {
		limit = r.maxScan
	}

	det := HeaderDetection{Row: 0, Scores: make([]int, limit)}
	best := 0
	for i := 0; i < limit; i++ {
		score := r.mapper.RowScore(rows[i])
		det.Scores[i] = score
		if score > best {
			best = score
			det.Row = i
		}
	}
	det.Score = best
	if best < 1 {
		det.Row = 0
		det.Fallback = true
	}
	return det
}
