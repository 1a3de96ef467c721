package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/model"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	Scoring   model.ScoringOptions `json:"scoring"`   // 生效的计分参数
	Overrides map[string]string    `json:"overrides"` // 数据库中的覆盖项
}

// UpdateConfigRequest 更新配置请求
type UpdateConfigRequest struct {
	// 使用 map 允许部分更新
	Updates map[string]interface{} `json:"updates"`
}

// GetConfig 获取计分配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	overrides := map[string]string{}
	if h.store != nil {
		all, err := h.store.GetAllConfig()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "获取配置失败"})
			return
		}
		overrides = all
	}

	c.JSON(http.StatusOK, ConfigResponse{
		Scoring:   h.effectiveScoring(),
		Overrides: overrides,
	})
}

// UpdateConfig 更新计分配置
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "配置存储不可用"})
		return
	}

	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	// 先整体校验，避免部分写入
	values := make(map[string]string, len(req.Updates))
	for key, value := range req.Updates {
		strValue, err := configValue(key, value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		values[key] = strValue
	}

	for key, value := range values {
		if err := h.store.SetConfig(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "更新配置失败: " + key,
			})
			return
		}
	}

	h.log.WithField("keys", len(values)).Info("scoring config updated")
	c.JSON(http.StatusOK, gin.H{"message": "配置更新成功", "scoring": h.effectiveScoring()})
}

// configValue 校验并序列化单个配置项
func configValue(key string, value interface{}) (string, error) {
	switch key {
	case model.ConfigKeyClampCompletion:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return "", fmt.Errorf("%s 必须为布尔值", key)
			}
			return strconv.FormatBool(b), nil
		}
		return "", fmt.Errorf("%s 必须为布尔值", key)

	case model.ConfigKeyWeightPercentThreshold:
		f, ok := numberValue(value)
		if !ok || f <= 0 {
			return "", fmt.Errorf("%s 必须为正数", key)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case model.ConfigKeyHeaderScanRows:
		f, ok := numberValue(value)
		if !ok || f < 1 || f != float64(int(f)) {
			return "", fmt.Errorf("%s 必须为正整数", key)
		}
		return strconv.Itoa(int(f)), nil

	case model.ConfigKeyFailurePolicy:
		s, ok := value.(string)
		if !ok || (s != string(model.FailureAbort) && s != string(model.FailureSkip)) {
			return "", fmt.Errorf("%s 必须为 abort 或 skip", key)
		}
		return s, nil
	}
	return "", fmt.Errorf("未知配置项: %s", key)
}

func numberValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
