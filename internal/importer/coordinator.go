package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"kpiboard/internal/calculator"
	"kpiboard/internal/logger"
	"kpiboard/internal/model"
	"kpiboard/internal/parser"
	"kpiboard/internal/store"
)

// Recorder 导入审计写入接口（*store.Store 实现）
type Recorder interface {
	CreateImportLog(filename string, fileSize int64, fileHash, failurePolicy string, clamp bool) (int64, error)
	UpdateImportLog(id int64, out store.ImportOutcome) error
	InsertSheetMeta(meta store.SheetMeta) error
}

// Coordinator 导入协调器：读取工作簿、逐 sheet 解析计分并汇总排名
type Coordinator struct {
	recorder Recorder
	log      *logger.Logger
}

// NewCoordinator 创建导入协调器；recorder 可为 nil
func NewCoordinator(recorder Recorder, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{recorder: recorder, log: log}
}

// ImportOptions 导入选项：FilePath 与 Reader 二选一
type ImportOptions struct {
	FilePath   string
	Reader     io.Reader
	FileName   string
	Scoring    model.ScoringOptions
	OnProgress func(ProgressEvent)
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // start/info/sheet_start/sheet_done/warning/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// sheetSource 可逐个解析 sheet 的数据源
type sheetSource interface {
	SheetNames() []string
	ParseSheet(name string) (*model.ParsedSheet, error)
}

// rawSource 内存中的原始 sheet
type rawSource struct {
	parser *parser.KPIParser
	sheets []model.RawSheet
}

func (r rawSource) SheetNames() []string {
	names := make([]string, len(r.sheets))
	for i, s := range r.sheets {
		names[i] = s.Name
	}
	return names
}

func (r rawSource) ParseSheet(name string) (*model.ParsedSheet, error) {
	for _, s := range r.sheets {
		if s.Name == name {
			return r.parser.ParseRows(name, s.Rows)
		}
	}
	return nil, fmt.Errorf("sheet %q not found", name)
}

// runContext 单次导入的上下文
type runContext struct {
	importID    int64
	totalSheets int
	result      *model.WorkbookResult
}

// Ingest 同步执行导入
func (c *Coordinator) Ingest(ctx context.Context, opts ImportOptions) (*model.WorkbookResult, error) {
	data, name, err := readInput(opts)
	if err != nil {
		return nil, err
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		c.log.WithField("file", name).WithError(err).Warn("workbook rejected")
		return nil, &model.UnparseableFileError{File: name, Err: err}
	}
	defer file.Close()

	sum := sha256.Sum256(data)
	src := parser.NewKPIParser(file, opts.Scoring.HeaderScanRows)
	return c.run(ctx, name, int64(len(data)), hex.EncodeToString(sum[:]), src, opts)
}

// IngestSheets 对内存中的原始 sheet 执行同样的流程（不写审计）
func (c *Coordinator) IngestSheets(ctx context.Context, name string, sheets []model.RawSheet, opts ImportOptions) (*model.WorkbookResult, error) {
	src := rawSource{parser: parser.NewKPIParser(nil, opts.Scoring.HeaderScanRows), sheets: sheets}
	unrecorded := &Coordinator{log: c.log}
	return unrecorded.run(ctx, name, 0, "", src, opts)
}

func readInput(opts ImportOptions) ([]byte, string, error) {
	name := opts.FileName
	if opts.Reader != nil {
		data, err := io.ReadAll(opts.Reader)
		if err != nil {
			return nil, name, fmt.Errorf("read upload: %w", err)
		}
		return data, name, nil
	}
	if opts.FilePath == "" {
		return nil, name, errors.New("no input file")
	}
	if name == "" {
		name = filepath.Base(opts.FilePath)
	}
	data, err := os.ReadFile(opts.FilePath)
	if err != nil {
		return nil, name, fmt.Errorf("read %s: %w", opts.FilePath, err)
	}
	return data, name, nil
}

// run 逐 sheet 处理并按失败策略决定中止或跳过
func (c *Coordinator) run(ctx context.Context, name string, size int64, hash string, src sheetSource, opts ImportOptions) (*model.WorkbookResult, error) {
	start := time.Now()
	scoring := opts.Scoring
	if scoring.FailurePolicy == "" {
		scoring.FailurePolicy = model.FailureAbort
	}

	rc := &runContext{
		result: &model.WorkbookResult{
			FileName:  name,
			Options:   scoring,
			CreatedAt: start,
		},
	}
	log := c.log.WithFields(map[string]any{"file": name, "policy": string(scoring.FailurePolicy)})

	if c.recorder != nil {
		id, err := c.recorder.CreateImportLog(name, size, hash, string(scoring.FailurePolicy), scoring.ClampCompletion)
		if err != nil {
			log.WithError(err).Warn("create import log failed")
		} else {
			rc.importID = id
			rc.result.ImportID = id
		}
	}

	sheetNames := src.SheetNames()
	rc.totalSheets = len(sheetNames)
	c.emit(opts, ProgressEvent{
		Type:    "start",
		Message: fmt.Sprintf("Bắt đầu xử lý %s", name),
		Data: map[string]interface{}{
			"filename":     name,
			"total_sheets": len(sheetNames),
		},
	})

	calcOpts := calculator.OptionsFrom(scoring)
	for _, sheetName := range sheetNames {
		if err := ctx.Err(); err != nil {
			c.finish(rc, "cancelled", err.Error())
			return nil, err
		}

		sheetStart := time.Now()
		c.emit(opts, ProgressEvent{
			Type:    "sheet_start",
			Message: fmt.Sprintf("Đang đọc sheet: %s", sheetName),
			Data:    map[string]string{"sheet_name": sheetName},
		})

		parsed, err := src.ParseSheet(sheetName)
		if err != nil {
			abort := scoring.FailurePolicy == model.FailureAbort
			report := model.SheetReport{
				SheetName: sheetName,
				Status:    model.SheetStatusSkipped,
				Error:     err.Error(),
				Duration:  time.Since(sheetStart),
			}
			if abort {
				report.Status = model.SheetStatusError
			}
			if parsed != nil {
				report.HeaderRow = parsed.Mapping.HeaderRow
				report.Warnings = parsed.Warnings
			}
			c.recordSheet(rc, parsed, sheetName, report)

			if abort {
				log.WithField("sheet", sheetName).WithError(err).Error("sheet rejected, aborting workbook")
				c.finish(rc, "failed", err.Error())
				return nil, fmt.Errorf("sheet %q: %w", sheetName, err)
			}

			log.WithField("sheet", sheetName).WithError(err).Warn("sheet skipped")
			rc.result.Reports = append(rc.result.Reports, report)
			rc.result.Skipped = append(rc.result.Skipped, model.SkippedSheet{Name: sheetName, Reason: err.Error()})
			c.emit(opts, ProgressEvent{
				Type:    "warning",
				Message: fmt.Sprintf("Bỏ qua sheet %s: %v", sheetName, err),
				Data:    report,
			})
			continue
		}

		for _, w := range parsed.Warnings {
			log.WithField("sheet", sheetName).Warn(w)
			rc.result.Warnings = append(rc.result.Warnings, w)
			c.emit(opts, ProgressEvent{Type: "warning", Message: w, Data: map[string]string{"sheet_name": sheetName}})
		}

		sheetResult := calculator.ScoreSheet(parsed, calcOpts)
		rc.result.Sheets = append(rc.result.Sheets, sheetResult)

		report := model.SheetReport{
			SheetName: sheetName,
			Status:    model.SheetStatusScored,
			HeaderRow: parsed.Mapping.HeaderRow,
			Rows:      len(parsed.Rows),
			Warnings:  parsed.Warnings,
			Duration:  time.Since(sheetStart),
		}
		rc.result.Reports = append(rc.result.Reports, report)
		c.recordSheet(rc, parsed, sheetName, report)

		c.emit(opts, ProgressEvent{
			Type:    "sheet_done",
			Message: fmt.Sprintf("Sheet %s: %d dòng, tổng điểm %.4f", sheetName, len(parsed.Rows), sheetResult.Summary.TotalScore),
			Data:    report,
		})
	}

	summaries := make([]model.SheetSummary, len(rc.result.Sheets))
	for i, s := range rc.result.Sheets {
		summaries[i] = s.Summary
	}
	rc.result.Ranking = calculator.Rank(summaries)
	rc.result.Stats = calculator.Stats(summaries)
	rc.result.Duration = time.Since(start)

	status := "completed"
	if len(rc.result.Skipped) > 0 {
		status = "partial"
	}
	c.finish(rc, status, "")

	log.WithFields(map[string]any{
		"scored":   len(rc.result.Sheets),
		"skipped":  len(rc.result.Skipped),
		"duration": rc.result.Duration.String(),
	}).Info("workbook scored")
	return rc.result, nil
}

// recordSheet 写入 sheet 元信息；审计失败不影响计分
func (c *Coordinator) recordSheet(rc *runContext, parsed *model.ParsedSheet, sheetName string, report model.SheetReport) {
	if c.recorder == nil || rc.importID == 0 {
		return
	}
	meta := store.SheetMeta{
		ImportLogID:  rc.importID,
		SheetName:    sheetName,
		HeaderRow:    report.HeaderRow,
		TotalRows:    report.Rows,
		Status:       report.Status,
		ErrorMessage: report.Error,
	}
	if parsed != nil {
		meta.HeaderFallback = parsed.Mapping.Fallback
		meta.ColumnsJSON = store.BuildColumnsJSON(parsed.Mapping.Raw)
		meta.NormalizedJSON = store.BuildColumnsJSON(parsed.Mapping.Normalized)
		meta.ColumnMappingJSON = store.BuildMappingJSON(parsed.Mapping.Columns)
	}
	if err := c.recorder.InsertSheetMeta(meta); err != nil {
		c.log.WithField("sheet", sheetName).WithError(err).Warn("insert sheet meta failed")
	}
}

func (c *Coordinator) finish(rc *runContext, status, errMsg string) {
	if c.recorder == nil || rc.importID == 0 {
		return
	}
	rows := 0
	for _, s := range rc.result.Sheets {
		rows += len(s.Rows)
	}
	err := c.recorder.UpdateImportLog(rc.importID, store.ImportOutcome{
		Status:        status,
		TotalSheets:   rc.totalSheets,
		ScoredSheets:  len(rc.result.Sheets),
		SkippedSheets: len(rc.result.Skipped),
		TotalRows:     rows,
		ErrorMessage:  errMsg,
	})
	if err != nil {
		c.log.WithError(err).Warn("update import log failed")
	}
}

func (c *Coordinator) emit(opts ImportOptions, evt ProgressEvent) {
	if opts.OnProgress == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	opts.OnProgress(evt)
}
