package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/charts"
	"kpiboard/internal/model"
)

const htmlContentType = "text/html; charset=utf-8"

// Dashboard 仪表盘：排名图 + 每个员工的计划/实际图
// GET /
func (h *Handler) Dashboard(c *gin.Context) {
	var result *model.WorkbookResult
	if entry, ok := h.currentResult(c); ok {
		result = entry.Result
	}
	var buf bytes.Buffer
	if err := charts.RenderDashboard(&buf, result); err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// RankingChart 排名图
// GET /api/charts/ranking
func (h *Handler) RankingChart(c *gin.Context) {
	entry, ok := h.currentResult(c)
	if !ok {
		noResult(c)
		return
	}
	var buf bytes.Buffer
	if err := charts.RenderChart(&buf, charts.RankingChart(entry.Result.Ranking)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// SheetChart 单个员工的计划/实际图
// GET /api/charts/sheets/:name
func (h *Handler) SheetChart(c *gin.Context) {
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
	var buf bytes.Buffer
	if err := charts.RenderChart(&buf, charts.PlanActualChart(*sheet)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}
