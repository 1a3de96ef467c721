package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ImportLog 导入记录
type ImportLog struct {
	ID              int64      `json:"id"`
	Filename        string     `json:"filename"`
	FileSize        int64      `json:"fileSize"`
	FileHash        string     `json:"fileHash"`
	Status          string     `json:"status"`
	FailurePolicy   string     `json:"failurePolicy"`
	ClampCompletion bool       `json:"clampCompletion"`
	TotalSheets     int        `json:"totalSheets"`
	ScoredSheets    int        `json:"scoredSheets"`
	SkippedSheets   int        `json:"skippedSheets"`
	TotalRows       int        `json:"totalRows"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// ImportOutcome 导入完成时回写的统计
type ImportOutcome struct {
	Status        string
	TotalSheets   int
	ScoredSheets  int
	SkippedSheets int
	TotalRows     int
	ErrorMessage  string
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename string, fileSize int64, fileHash, failurePolicy string, clamp bool) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_size, file_hash, failure_policy, clamp_completion, status)
		VALUES (?, ?, ?, ?, ?, 'processing')
	`, filename, fileSize, fileHash, failurePolicy, clamp)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(id int64, out ImportOutcome) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			total_sheets = ?,
			scored_sheets = ?,
			skipped_sheets = ?,
			total_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, out.TotalSheets, out.ScoredSheets, out.SkippedSheets, out.TotalRows, out.Status, out.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入记录（按时间倒序）
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, filename, file_size, file_hash, status, failure_policy, clamp_completion,
			total_sheets, scored_sheets, skipped_sheets, total_rows, error_message,
			created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	var out []ImportLog
	for rows.Next() {
		var (
			it        ImportLog
			completed sql.NullTime
		)
		if err := rows.Scan(
			&it.ID, &it.Filename, &it.FileSize, &it.FileHash, &it.Status, &it.FailurePolicy, &it.ClampCompletion,
			&it.TotalSheets, &it.ScoredSheets, &it.SkippedSheets, &it.TotalRows, &it.ErrorMessage,
			&it.CreatedAt, &completed,
		); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
