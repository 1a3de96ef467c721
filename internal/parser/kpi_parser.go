package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"kpiboard/internal/model"
)

// KPIParser KPI 工作表解析器
type KPIParser struct {
	file       *excelize.File
	mapper     *FieldMapper
	recognizer *SheetRecognizer
}

// NewKPIParser 创建解析器；file 可为 nil（仅使用 ParseRows）
func NewKPIParser(file *excelize.File, headerScanRows int) *KPIParser {
	mapper := NewFieldMapper()
	return &KPIParser{
		file:       file,
		mapper:     mapper,
		recognizer: NewSheetRecognizer(mapper, headerScanRows),
	}
}

// SheetNames 返回工作簿中的 sheet（保持工作簿顺序）
func (p *KPIParser) SheetNames() []string {
	if p.file == nil {
		return nil
	}
	return p.file.GetSheetList()
}

// ParseSheet 读取并解析一个 sheet
func (p *KPIParser) ParseSheet(sheetName string) (*model.ParsedSheet, error) {
	if p.file == nil {
		return nil, fmt.Errorf("no workbook loaded")
	}
	rows, err := p.file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return p.ParseRows(sheetName, rows)
}

// ParseRows 解析二维单元格：探测表头行、映射角色、转换数据行
func (p *KPIParser) ParseRows(sheetName string, rows [][]string) (*model.ParsedSheet, error) {
	sheet := &model.ParsedSheet{Name: sheetName}

	det := p.recognizer.DetectHeaderRow(rows)
	if det.Fallback {
		sheet.Warnings = append(sheet.Warnings,
			fmt.Sprintf("sheet %q: no header row recognized in first %d rows, using row 1", sheetName, len(det.Scores)))
	}

	var headers []string
	if det.Row < len(rows) {
		headers = rows[det.Row]
	}
	mapping := p.mapper.Resolve(headers)
	mapping.HeaderRow = det.Row
	mapping.Fallback = det.Fallback
	sheet.Mapping = mapping

	if missing := mapping.Missing(); len(missing) > 0 {
		return sheet, &model.MissingColumnError{
			Sheet:             sheetName,
			Missing:           missing,
			HeaderRow:         det.Row,
			RawHeaders:        mapping.Raw,
			NormalizedHeaders: mapping.Normalized,
		}
	}

	for rowIdx := det.Row + 1; rowIdx < len(rows); rowIdx++ {
		row, ok := p.parseRow(rows[rowIdx], mapping.Columns)
		if !ok {
			continue
		}
		row.RowNo = rowIdx + 1
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// parseRow 解析单行；四个角色列全部为空时跳过
func (p *KPIParser) parseRow(cells []string, columns map[model.ColumnRole]int) (model.ParsedRow, bool) {
	cell := func(role model.ColumnRole) string {
		idx := columns[role]
		if idx < 0 || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	name := cell(model.RoleItemName)
	weight := cell(model.RoleWeight)
	plan := cell(model.RolePlan)
	actual := cell(model.RoleActual)
	if name == "" && weight == "" && plan == "" && actual == "" {
		return model.ParsedRow{}, false
	}

	return model.ParsedRow{
		ItemName: name,
		Weight:   ParseNumber(weight),
		Plan:     ParseNumber(plan),
		Actual:   ParseNumber(actual),
	}, true
}

// RowsFromCells 将任意类型单元格转换为文本行（JSON 请求等场景）
func RowsFromCells(cells [][]any) [][]string {
	rows := make([][]string, len(cells))
	for i, r := range cells {
		rows[i] = make([]string, len(r))
		for j, c := range r {
			rows[i][j] = CellText(c)
		}
	}
	return rows
}
