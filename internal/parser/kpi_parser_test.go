package parser

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func newKPIWorkbook(t *testing.T, sheets map[string][][]any, order []string) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	defaultSheet := f.GetSheetName(0)
	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	return f
}

func TestKPIParser_ParseSheet_TitleRowsBeforeHeader(t *testing.T) {
	t.Parallel()

	f := newKPIWorkbook(t, map[string][][]any{
		"NV01": {
			{"BẢNG ĐÁNH GIÁ THÁNG 10"},
			{},
			{"STT", "Chỉ tiêu", "Trọng số (%)", "Kế hoạch", "Thực hiện"},
			{1, "Doanh số", 30, 100, 80},
			{},
			{2, "Khách hàng mới", "70%", "50", "60"},
		},
	}, []string{"NV01"})

	p := NewKPIParser(f, 30)
	sheet, err := p.ParseSheet("NV01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sheet.Mapping.HeaderRow != 2 {
		t.Fatalf("header row want 2 got %d", sheet.Mapping.HeaderRow)
	}
	if sheet.Mapping.Fallback {
		t.Fatalf("unexpected fallback")
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows want 2 got %d: %+v", len(sheet.Rows), sheet.Rows)
	}
	first := sheet.Rows[0]
	if first.ItemName != "Doanh số" || first.Weight != 30 || first.Plan != 100 || first.Actual != 80 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.RowNo != 4 {
		t.Fatalf("row no want 4 got %d", first.RowNo)
	}
	if second := sheet.Rows[1]; second.Weight != 70 || second.Plan != 50 || second.Actual != 60 {
		t.Fatalf("unexpected second row: %+v", second)
	}
}

func TestKPIParser_ParseRows_FallbackWarns(t *testing.T) {
	t.Parallel()

	p := NewKPIParser(nil, 5)
	sheet, err := p.ParseRows("Trống", [][]string{
		{"a", "b"},
		{"1", "2"},
	})
	if err == nil {
		t.Fatalf("expected missing column error after fallback")
	}
	if sheet == nil || !sheet.Mapping.Fallback || sheet.Mapping.HeaderRow != 0 {
		t.Fatalf("expected fallback to row 0: %+v", sheet)
	}
	if len(sheet.Warnings) != 1 {
		t.Fatalf("expected one warning got %v", sheet.Warnings)
	}
}

func TestKPIParser_ParseRows_UnparseableNumbersBecomeZero(t *testing.T) {
	t.Parallel()

	p := NewKPIParser(nil, 0)
	sheet, err := p.ParseRows("NV02", [][]string{
		{"KPI", "Weight", "Target", "Actual"},
		{"Calls", "n/a", "1,000", "-"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	row := sheet.Rows[0]
	if row.Weight != 0 || row.Plan != 1000 || row.Actual != 0 {
		t.Fatalf("unexpected coercion: %+v", row)
	}
}

func TestSheetRecognizer_DetectHeaderRow_RespectsScanLimit(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"x"}, {"y"}, {"z"}, {"Chỉ tiêu", "Trọng số", "Kế hoạch", "Thực hiện"}}
	det := NewSheetRecognizer(nil, 3).DetectHeaderRow(rows)
	if !det.Fallback || det.Row != 0 {
		t.Fatalf("header beyond scan window must fall back: %+v", det)
	}

	det = NewSheetRecognizer(nil, 4).DetectHeaderRow(rows)
	if det.Fallback || det.Row != 3 || det.Score != 4 {
		t.Fatalf("unexpected detection: %+v", det)
	}
}
