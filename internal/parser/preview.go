package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"kpiboard/internal/model"
)

// DefaultPreviewRows 预览默认行数
const DefaultPreviewRows = 10

// SheetPreview 单个 sheet 的预览：行数、探测到的表头与前若干数据行
type SheetPreview struct {
	Name      string              `json:"name"`
	RowCount  int                 `json:"rowCount"`
	Detection HeaderDetection     `json:"detection"`
	Mapping   model.HeaderMapping `json:"mapping"`
	Missing   []model.ColumnRole  `json:"missing,omitempty"`
	Rows      [][]string          `json:"rows"`
}

// Previewer 工作簿预览器
type Previewer struct {
	file       *excelize.File
	mapper     *FieldMapper
	recognizer *SheetRecognizer
}

// NewPreviewer 创建预览器
func NewPreviewer(headerScanRows int) *Previewer {
	mapper := NewFieldMapper()
	return &Previewer{
		mapper:     mapper,
		recognizer: NewSheetRecognizer(mapper, headerScanRows),
	}
}

// LoadFile 加载 Excel 文件
func (p *Previewer) LoadFile(reader io.Reader) error {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return &model.UnparseableFileError{Err: err}
	}
	p.file = file
	return nil
}

// GetSheets 预览全部 sheet（保持工作簿顺序）
func (p *Previewer) GetSheets(limit int) ([]SheetPreview, error) {
	if p.file == nil {
		return nil, errors.New("no file loaded")
	}

	names := p.file.GetSheetList()
	result := make([]SheetPreview, 0, len(names))
	for _, name := range names {
		rows, err := p.file.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		result = append(result, p.PreviewRows(name, rows, limit))
	}
	return result, nil
}

// PreviewRows 对二维单元格做表头探测并截取表头之后的 limit 行
func (p *Previewer) PreviewRows(name string, rows [][]string, limit int) SheetPreview {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	det := p.recognizer.DetectHeaderRow(rows)
	var headers []string
	if det.Row < len(rows) {
		headers = rows[det.Row]
	}
	mapping := p.mapper.Resolve(headers)
	mapping.HeaderRow = det.Row
	mapping.Fallback = det.Fallback

	start := det.Row + 1
	end := start + limit
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}

	return SheetPreview{
		Name:      name,
		RowCount:  len(rows),
		Detection: det,
		Mapping:   mapping,
		Missing:   mapping.Missing(),
		Rows:      rows[start:end],
	}
}

// Close 关闭文件
func (p *Previewer) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
