package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"kpiboard/internal/model"
	"kpiboard/internal/parser"
)

// ReadSummaryXLSX 读取导出的汇总工作簿
func ReadSummaryXLSX(r io.Reader) ([]model.SheetSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &model.UnparseableFileError{File: SummarySheet, Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(SummarySheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", SummarySheet, err)
	}
	return summariesFromRows(rows)
}

// summariesFromRows 第一行为表头，按列名定位固定列
func summariesFromRows(rows [][]string) ([]model.SheetSummary, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range SummaryColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("summary column %q: %w", col, model.ErrMissingColumn)
		}
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := make([]model.SheetSummary, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		out = append(out, model.SheetSummary{
			EmployeeID:           cell(row, "employee_id"),
			TotalScore:           parser.ParseNumber(cell(row, "total_score")),
			OverallCompletionPct: parser.ParseNumber(cell(row, "overall_completion_pct")),
			TotalPlan:            parser.ParseNumber(cell(row, "total_plan")),
			TotalActual:          parser.ParseNumber(cell(row, "total_actual")),
		})
	}
	return out, nil
}
