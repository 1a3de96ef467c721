package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"kpiboard/internal/calculator"
	"kpiboard/internal/model"
)

// SummarySheet 汇总表名称
const SummarySheet = "Summary"

// SummaryColumns 汇总导出的固定列
var SummaryColumns = []string{"employee_id", "total_score", "overall_completion_pct", "total_plan", "total_actual"}

// detailColumns 明细表列
var detailColumns = []string{"item_name", "weight", "weight_normalized", "plan", "actual", "completion_ratio", "score"}

// Options 导出选项
type Options struct {
	ScoreDecimals  int                 // 总分保留位数；负数使用默认 4
	PctDecimals    int                 // 完成率保留位数；负数使用默认 2
	IncludeDetails bool                // 追加每个员工的明细表
	Sheets         []model.SheetResult // IncludeDetails 时使用
	Progress       func(ProgressEvent)
}

// DefaultOptions 默认舍入位数的导出选项
func DefaultOptions() Options {
	return Options{ScoreDecimals: 4, PctDecimals: 2}
}

// OptionsFrom 根据计分配置构造导出选项
func OptionsFrom(o model.ScoringOptions) Options {
	return Options{ScoreDecimals: o.ScoreDecimals, PctDecimals: o.PctDecimals}
}

func (o Options) scoreDecimals() int {
	if o.ScoreDecimals < 0 {
		return 4
	}
	return o.ScoreDecimals
}

func (o Options) pctDecimals() int {
	if o.PctDecimals < 0 {
		return 2
	}
	return o.PctDecimals
}

// summaryRecord 一行汇总的导出值（已按配置舍入）
func summaryRecord(s model.SheetSummary, opts Options) []any {
	return []any{
		s.EmployeeID,
		calculator.Round(s.TotalScore, opts.scoreDecimals()),
		calculator.Round(s.OverallCompletionPct, opts.pctDecimals()),
		s.TotalPlan,
		s.TotalActual,
	}
}

// ExportSummary 生成汇总工作簿
func ExportSummary(ranked []model.RankedSummary, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()
	reportProgress(opts.Progress, 0, "Tạo bảng tổng hợp")

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, toAny(SummaryColumns)); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, r := range ranked {
		if err := writeRow(f, SummarySheet, i+2, summaryRecord(r.SheetSummary, opts)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	_ = f.SetRowStyle(SummarySheet, 1, 1, headerStyle)
	_ = f.SetColWidth(SummarySheet, "A", "A", 24)
	_ = f.SetColWidth(SummarySheet, "B", "E", 18)

	if opts.IncludeDetails {
		total := len(opts.Sheets)
		for i, sheet := range opts.Sheets {
			reportProgress(opts.Progress, 10+80*i/max(total, 1), "Ghi chi tiết "+sheet.Name)
			if err := writeDetailSheet(f, sheet, headerStyle); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}

	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "Hoàn tất")
	return f, nil
}

// WriteSummaryXLSX 生成汇总工作簿并写入 w
func WriteSummaryXLSX(w io.Writer, ranked []model.RankedSummary, opts Options) error {
	f, err := ExportSummary(ranked, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeDetailSheet 员工明细表；与汇总表重名时追加后缀
func writeDetailSheet(f *excelize.File, sheet model.SheetResult, headerStyle int) error {
	name := detailSheetName(f, sheet.Name)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create detail sheet %q: %w", name, err)
	}
	if err := writeRow(f, name, 1, toAny(detailColumns)); err != nil {
		return err
	}
	for i, r := range sheet.Rows {
		row := []any{r.ItemName, r.Weight, r.WeightNormalized, r.Plan, r.Actual, r.CompletionRatio, r.Score}
		if err := writeRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	_ = f.SetRowStyle(name, 1, 1, headerStyle)
	_ = f.SetColWidth(name, "A", "A", 30)
	return nil
}

func detailSheetName(f *excelize.File, base string) string {
	name := sanitizeSheetName(base, 31)
	if name == "" {
		name = "Sheet"
	}
	candidate := name
	for i := 2; ; i++ {
		if idx, _ := f.GetSheetIndex(candidate); idx == -1 {
			return candidate
		}
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = sanitizeSheetName(name, 31-len(suffix)) + suffix
	}
}

// sanitizeSheetName 去除 Excel 不允许的字符并按字符数截断
func sanitizeSheetName(s string, limit int) string {
	r := []rune(strings.Map(func(c rune) rune {
		switch c {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return c
	}, s))
	if len(r) > limit {
		r = r[:limit]
	}
	return string(r)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
