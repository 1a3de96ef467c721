package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/exporter"
	"kpiboard/internal/model"
	"kpiboard/internal/service/session"
)

// ExportRequest 导出请求
type ExportRequest struct {
	Format         string `json:"format"` // xlsx/csv
	IncludeDetails bool   `json:"includeDetails"`
}

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func (r *ExportRequest) normalize() error {
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if r.Format == "" {
		r.Format = "xlsx"
	}
	if r.Format != "xlsx" && r.Format != "csv" {
		return fmt.Errorf("不支持的导出格式: %s", r.Format)
	}
	return nil
}

// exportFileName 下载文件名：kpi_summary_<源文件名>.<ext>
func exportFileName(source, format string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		return "kpi_summary." + format
	}
	return fmt.Sprintf("kpi_summary_%s.%s", base, format)
}

// writeExport 将当前结果写入导出目录，返回下载项
func (h *Handler) writeExport(result *model.WorkbookResult, req ExportRequest, progress func(exporter.ProgressEvent)) (exportDownload, error) {
	opts := exporter.OptionsFrom(result.Options)
	opts.IncludeDetails = req.IncludeDetails
	opts.Sheets = result.Sheets
	opts.Progress = progress

	path := filepath.Join(h.exportDir, fmt.Sprintf("kpiboard_export_%s.%s", session.NewID(), req.Format))
	item := exportDownload{
		filePath: path,
		fileName: exportFileName(result.FileName, req.Format),
		format:   req.Format,
	}

	if req.Format == "csv" {
		f, err := os.Create(path)
		if err != nil {
			return item, fmt.Errorf("create export file: %w", err)
		}
		if err := exporter.WriteSummaryCSV(f, result.Ranking, opts); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return item, err
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return item, fmt.Errorf("close export file: %w", err)
		}
		return item, nil
	}

	wb, err := exporter.ExportSummary(result.Ranking, opts)
	if err != nil {
		return item, err
	}
	defer wb.Close()
	if err := wb.SaveAs(path); err != nil {
		_ = os.Remove(path)
		return item, fmt.Errorf("写入导出文件失败: %w", err)
	}
	return item, nil
}

func downloadURL(c *gin.Context, token string) string {
	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/export/download/%s", prefix, token)
}

// Export 导出当前排名并返回一次性下载地址
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	entry, ok := h.currentResult(c)
	if !ok {
		noResult(c)
		return
	}

	var req ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
			return
		}
	}
	if err := req.normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.writeExport(entry.Result, req, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token := h.downloads.put(item, exportDownloadTTL)
	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"fileName":    item.fileName,
		"downloadUrl": downloadURL(c, token),
	})
}

// ExportStream 导出（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	entry, ok := h.currentResult(c)
	if !ok {
		noResult(c)
		return
	}

	req := ExportRequest{
		Format:         c.DefaultQuery("format", "xlsx"),
		IncludeDetails: c.Query("includeDetails") == "true",
	}
	if err := req.normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:    "start",
		Message: "开始导出",
		Data: map[string]any{
			"format": req.Format,
			"sheets": len(entry.Result.Ranking),
		},
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	item, err := h.writeExport(entry.Result, req, progressFn)
	if err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "导出失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		return
	}

	token := h.downloads.put(item, exportDownloadTTL)
	send(exportProgressEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"percent":     100,
			"fileName":    item.fileName,
			"downloadUrl": downloadURL(c, token),
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", exporter.BuildContentDisposition("kpi_summary."+item.format, item.fileName))
	c.Header("Content-Type", exporter.ContentType(item.format))
	c.File(item.filePath)
}
