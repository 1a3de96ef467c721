package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/importer"
	"kpiboard/internal/model"
	"kpiboard/internal/parser"
	"kpiboard/internal/service/session"
)

// ScoreSheet JSON 计分请求中的单个 sheet
type ScoreSheet struct {
	Name string  `json:"name"`
	Rows [][]any `json:"rows"`
}

// ScoreRequest JSON 计分请求
type ScoreRequest struct {
	FileName        string       `json:"fileName"`
	Sheets          []ScoreSheet `json:"sheets"`
	ClampCompletion *bool        `json:"clampCompletion"`
	FailurePolicy   string       `json:"failurePolicy"`
}

// Preview 预览上传的工作簿：每个 sheet 的表头探测与前几行
// POST /api/preview
func (h *Handler) Preview(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer f.Close()

	limit, _ := strconv.Atoi(c.DefaultPostForm("limit", strconv.Itoa(parser.DefaultPreviewRows)))

	p := parser.NewPreviewer(h.effectiveScoring().HeaderScanRows)
	if err := p.LoadFile(f); err != nil {
		h.respondError(c, err)
		return
	}
	defer p.Close()

	sheets, err := p.GetSheets(limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileName": fh.Filename, "sheets": sheets})
}

// Import 导入 Excel 并计分 (SSE 流式响应)
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	uploadedFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	// 保存到上传目录
	tempFilePath := filepath.Join(h.uploadDir, fmt.Sprintf("kpiboard_import_%s_%s", session.NewID(), filepath.Base(uploadedFile.Filename)))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(tempFilePath)

	scoring := h.effectiveScoring()
	if v := c.PostForm("clampCompletion"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			scoring.ClampCompletion = b
		}
	}
	if v := c.PostForm("failurePolicy"); v != "" {
		scoring.FailurePolicy = model.ParseFailurePolicy(v)
	}

	sid := h.ensureSession(c)

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	progressChan := h.coordinator.Import(c.Request.Context(), importer.ImportOptions{
		FilePath: tempFilePath,
		FileName: uploadedFile.Filename,
		Scoring:  scoring,
	})

	for event := range progressChan {
		switch event.Type {
		case "done":
			if result, ok := event.Data.(*model.WorkbookResult); ok && result != nil {
				h.sessions.Put(sid, result)
				event.Data = newSummaryResponse(sid, result)
			}
		case "error":
			if data, ok := event.Data.(importer.ErrorData); ok && data.Err != nil {
				body := errorBody(data.Err)
				body["status"] = errorStatus(data.Err)
				event.Data = body
			}
		}

		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// Score 对 JSON 提交的 sheet 计分（无需工作簿）
// POST /api/score
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}
	if len(req.Sheets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sheets 不能为空"})
		return
	}

	scoring := h.effectiveScoring()
	if req.ClampCompletion != nil {
		scoring.ClampCompletion = *req.ClampCompletion
	}
	if req.FailurePolicy != "" {
		scoring.FailurePolicy = model.ParseFailurePolicy(req.FailurePolicy)
	}

	raw := make([]model.RawSheet, len(req.Sheets))
	for i, s := range req.Sheets {
		raw[i] = model.RawSheet{Name: s.Name, Rows: parser.RowsFromCells(s.Rows)}
	}
	name := req.FileName
	if name == "" {
		name = "request.json"
	}

	result, err := h.coordinator.IngestSheets(c.Request.Context(), name, raw, importer.ImportOptions{Scoring: scoring})
	if err != nil {
		h.respondError(c, err)
		return
	}

	sid := h.ensureSession(c)
	h.sessions.Put(sid, result)
	c.JSON(http.StatusOK, newSummaryResponse(sid, result))
}

// ListImports 最近的导入记录
// GET /api/imports
func (h *Handler) ListImports(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	logs, err := h.store.ListImportLogs(limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}

// ListImportSheets 某次导入的 sheet 元信息
// GET /api/imports/:id/sheets
func (h *Handler) ListImportSheets(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的导入 ID"})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}
	metas, err := h.store.ListSheetMeta(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": metas})
}

// ListHistory 按 sheet 汇总的历次导入
// GET /api/history
func (h *Handler) ListHistory(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}
	items, err := h.store.ListSheetHistory()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
