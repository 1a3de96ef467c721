package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"kpiboard/internal/model"
)

// WriteSummaryCSV 以固定列导出汇总 CSV
func WriteSummaryCSV(w io.Writer, ranked []model.RankedSummary, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range ranked {
		rec := summaryRecord(r.SheetSummary, opts)
		line := make([]string, len(rec))
		for i, v := range rec {
			switch x := v.(type) {
			case string:
				line[i] = x
			case float64:
				line[i] = strconv.FormatFloat(x, 'f', -1, 64)
			}
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSummaryCSV 读取汇总 CSV（数值使用同一套宽松转换）
func ReadSummaryCSV(r io.Reader) ([]model.SheetSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return summariesFromRows(records)
}
