package store

import (
	"fmt"
	"time"
)

// SheetHistory 某员工 sheet 的历次导入统计
type SheetHistory struct {
	SheetName  string    `json:"sheetName"`
	Imports    int       `json:"imports"`
	Failures   int       `json:"failures"`
	LastImport int64     `json:"lastImportId"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	LastStatus string    `json:"lastStatus"`
	LastRows   int       `json:"lastRows"`
}

// ListSheetHistory 按 sheet 名汇总历次导入（最近出现的在前）
func (s *Store) ListSheetHistory() ([]SheetHistory, error) {
	rows, err := s.db.Query(`
		SELECT
			sm.sheet_name,
			COUNT(1) AS imports,
			SUM(CASE WHEN sm.status = 'error' THEN 1 ELSE 0 END) AS failures,
			MAX(sm.import_log_id) AS last_import
		FROM sheets_meta sm
		GROUP BY sm.sheet_name
		ORDER BY last_import DESC, sm.sheet_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query sheet history failed: %w", err)
	}

	var out []SheetHistory
	for rows.Next() {
		var it SheetHistory
		if err := rows.Scan(&it.SheetName, &it.Imports, &it.Failures, &it.LastImport); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sheet history failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// 单连接下需先关闭上一个结果集
	for i := range out {
		err := s.db.QueryRow(`
			SELECT status, total_rows, created_at FROM sheets_meta
			WHERE sheet_name = ? AND import_log_id = ?
			ORDER BY id DESC LIMIT 1
		`, out[i].SheetName, out[i].LastImport).Scan(&out[i].LastStatus, &out[i].LastRows, &out[i].LastSeenAt)
		if err != nil {
			return nil, fmt.Errorf("query last sheet status failed: %w", err)
		}
	}
	return out, nil
}
