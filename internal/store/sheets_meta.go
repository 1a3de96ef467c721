package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// SheetMeta Sheet 元信息（表头识别结果，用于追溯）
type SheetMeta struct {
	ID                int64     `json:"id"`
	ImportLogID       int64     `json:"importLogId"`
	SheetName         string    `json:"sheetName"`
	HeaderRow         int       `json:"headerRow"`
	HeaderFallback    bool      `json:"headerFallback"`
	ColumnsJSON       string    `json:"columnsJson"`
	NormalizedJSON    string    `json:"normalizedJson"`
	ColumnMappingJSON string    `json:"columnMappingJson"`
	TotalRows         int       `json:"totalRows"`
	Status            string    `json:"status"`
	ErrorMessage      string    `json:"errorMessage,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// InsertSheetMeta 写入 Sheet 元信息
func (s *Store) InsertSheetMeta(meta SheetMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO sheets_meta (
			import_log_id, sheet_name,
			header_row, header_fallback,
			columns_json, normalized_json, column_mapping_json,
			total_rows, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.ImportLogID, meta.SheetName,
		meta.HeaderRow, meta.HeaderFallback,
		orJSON(meta.ColumnsJSON, "[]"), orJSON(meta.NormalizedJSON, "[]"), orJSON(meta.ColumnMappingJSON, "{}"),
		meta.TotalRows, meta.Status, meta.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sheets_meta: %w", err)
	}
	return nil
}

// ListSheetMeta 某次导入的 sheet 元信息（按写入顺序）
func (s *Store) ListSheetMeta(importLogID int64) ([]SheetMeta, error) {
	rows, err := s.db.Query(`
		SELECT id, import_log_id, sheet_name, header_row, header_fallback,
			columns_json, normalized_json, column_mapping_json,
			total_rows, status, error_message, created_at
		FROM sheets_meta
		WHERE import_log_id = ?
		ORDER BY id
	`, importLogID)
	if err != nil {
		return nil, fmt.Errorf("query sheets_meta failed: %w", err)
	}
	defer rows.Close()

	var out []SheetMeta
	for rows.Next() {
		var m SheetMeta
		if err := rows.Scan(
			&m.ID, &m.ImportLogID, &m.SheetName, &m.HeaderRow, &m.HeaderFallback,
			&m.ColumnsJSON, &m.NormalizedJSON, &m.ColumnMappingJSON,
			&m.TotalRows, &m.Status, &m.ErrorMessage, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sheets_meta failed: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// BuildColumnsJSON 将列名序列化为 JSON
func BuildColumnsJSON(columns []string) string {
	if columns == nil {
		return "[]"
	}
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// BuildMappingJSON 将角色映射序列化为 JSON
func BuildMappingJSON[K ~string](mapping map[K]int) string {
	b, err := json.Marshal(mapping)
	if err != nil || mapping == nil {
		return "{}"
	}
	return string(b)
}

func orJSON(v, empty string) string {
	if v == "" {
		return empty
	}
	return v
}
