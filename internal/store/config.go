package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"kpiboard/internal/model"
)

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// GetConfigInt 获取整数配置项
func (s *Store) GetConfigInt(key string) (int, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetConfigFloat 获取浮点数配置项
func (s *Store) GetConfigFloat(key string) (float64, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// DeleteConfig 删除配置项
func (s *Store) DeleteConfig(key string) error {
	_, err := s.db.Exec("DELETE FROM config WHERE key = ?", key)
	return err
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}
	return config, rows.Err()
}

// ApplyScoringOverrides 用数据库中的覆盖项修正计分参数；非法值忽略
func (s *Store) ApplyScoringOverrides(base model.ScoringOptions) (model.ScoringOptions, error) {
	all, err := s.GetAllConfig()
	if err != nil {
		return base, err
	}
	if v, ok := all[model.ConfigKeyClampCompletion]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			base.ClampCompletion = b
		}
	}
	if v, ok := all[model.ConfigKeyWeightPercentThreshold]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			base.WeightPercentThreshold = f
		}
	}
	if v, ok := all[model.ConfigKeyHeaderScanRows]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			base.HeaderScanRows = n
		}
	}
	if v, ok := all[model.ConfigKeyFailurePolicy]; ok {
		base.FailurePolicy = model.ParseFailurePolicy(v)
	}
	return base, nil
}

// SaveScoringOverrides 持久化计分参数
func (s *Store) SaveScoringOverrides(opts model.ScoringOptions) error {
	pairs := map[string]string{
		model.ConfigKeyClampCompletion:        strconv.FormatBool(opts.ClampCompletion),
		model.ConfigKeyWeightPercentThreshold: strconv.FormatFloat(opts.WeightPercentThreshold, 'f', -1, 64),
		model.ConfigKeyHeaderScanRows:         strconv.Itoa(opts.HeaderScanRows),
		model.ConfigKeyFailurePolicy:          string(opts.FailurePolicy),
	}
	for k, v := range pairs {
		if err := s.SetConfig(k, v); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}
