package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool                 `json:"initialized"`    // 当前会话是否已有计分结果
	FileName       string               `json:"fileName"`       // 当前会话的文件名
	SheetCount     int                  `json:"sheetCount"`     // 已计分 sheet 数
	SkippedCount   int                  `json:"skippedCount"`   // 跳过的 sheet 数
	ActiveSessions int                  `json:"activeSessions"` // 有效会话数
	LastImportTime string               `json:"lastImportTime"` // 最后导入时间（审计日志）
	LastImportFile string               `json:"lastImportFile"`
	SchemaVersion  uint                 `json:"schemaVersion"`
	Scoring        model.ScoringOptions `json:"scoring"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		ActiveSessions: h.sessions.Count(),
		Scoring:        h.effectiveScoring(),
	}

	if entry, ok := h.currentResult(c); ok {
		resp.Initialized = true
		resp.FileName = entry.FileName
		resp.SheetCount = len(entry.Result.Sheets)
		resp.SkippedCount = len(entry.Result.Skipped)
	}

	if h.store != nil {
		if logs, err := h.store.ListImportLogs(1); err == nil && len(logs) > 0 {
			resp.LastImportTime = logs[0].CreatedAt.Format("2006-01-02 15:04:05")
			resp.LastImportFile = logs[0].Filename
		}
		if v, _, err := h.store.SchemaVersion(); err == nil {
			resp.SchemaVersion = v
		}
	}

	c.JSON(http.StatusOK, resp)
}
