package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/model"
)

// summaryResponse 排名汇总响应
type summaryResponse struct {
	SessionID string                `json:"sessionId"`
	ImportID  int64                 `json:"importId,omitempty"`
	FileName  string                `json:"fileName"`
	Ranking   []model.RankedSummary `json:"ranking"`
	Stats     model.ScoreStats      `json:"stats"`
	Reports   []model.SheetReport   `json:"reports"`
	Skipped   []model.SkippedSheet  `json:"skipped"`
	Warnings  []string              `json:"warnings"`
	Options   model.ScoringOptions  `json:"options"`
}

func newSummaryResponse(sid string, r *model.WorkbookResult) summaryResponse {
	resp := summaryResponse{
		SessionID: sid,
		ImportID:  r.ImportID,
		FileName:  r.FileName,
		Ranking:   r.Ranking,
		Stats:     r.Stats,
		Reports:   r.Reports,
		Skipped:   r.Skipped,
		Warnings:  r.Warnings,
		Options:   r.Options,
	}
	if resp.Ranking == nil {
		resp.Ranking = []model.RankedSummary{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []model.SkippedSheet{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp
}

// GetSummary 当前会话的排名、统计、跳过与警告
// GET /api/summary
func (h *Handler) GetSummary(c *gin.Context) {
	entry, ok := h.currentResult(c)
	if !ok {
		noResult(c)
		return
	}
	c.JSON(http.StatusOK, newSummaryResponse(entry.ID, entry.Result))
}

// GetSheet 单个员工的明细行与汇总
// GET /api/sheets/:name
func (h *Handler) GetSheet(c *gin.Context) {
	entry, ok := h.currentResult(c)
	if !ok {
		noResult(c)
		return
	}
	sheet, ok := entry.Result.Sheet(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sheet 不存在"})
		return
	}
	c.JSON(http.StatusOK, sheet)
}
