package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/importer"
	"kpiboard/internal/logger"
	"kpiboard/internal/model"
	"kpiboard/internal/service/accounts"
	"kpiboard/internal/service/session"
	"kpiboard/internal/store"
)

// SessionCookie 会话 cookie 名称
const SessionCookie = "kpiboard_session"

// SessionHeader 非浏览器客户端可用请求头传递会话
const SessionHeader = "X-Session-ID"

// Deps Handler 依赖
type Deps struct {
	Store     *store.Store
	Accounts  *accounts.Store
	Sessions  *session.Cache
	Scoring   model.ScoringOptions
	UploadDir string
	ExportDir string
	Logger    *logger.Logger
}

// Handler API 处理器
type Handler struct {
	store       *store.Store
	accounts    *accounts.Store
	sessions    *session.Cache
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore
	scoring     model.ScoringOptions
	uploadDir   string
	exportDir   string
	log         *logger.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewCache(session.DefaultTTL)
	}
	uploadDir := deps.UploadDir
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	exportDir := deps.ExportDir
	if exportDir == "" {
		exportDir = os.TempDir()
	}

	var recorder importer.Recorder
	if deps.Store != nil {
		recorder = deps.Store
	}

	return &Handler{
		store:       deps.Store,
		accounts:    deps.Accounts,
		sessions:    sessions,
		coordinator: importer.NewCoordinator(recorder, log),
		downloads:   newExportDownloadStore(),
		scoring:     deps.Scoring,
		uploadDir:   uploadDir,
		exportDir:   exportDir,
		log:         log,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 数据导入
	router.POST("/preview", h.Preview)
	router.POST("/import", h.Import)
	router.POST("/score", h.Score)
	router.GET("/imports", h.ListImports)
	router.GET("/imports/:id/sheets", h.ListImportSheets)
	router.GET("/history", h.ListHistory)

	// 计分结果
	router.GET("/summary", h.GetSummary)
	router.GET("/sheets/:name", h.GetSheet)

	// 图表
	router.GET("/charts/ranking", h.RankingChart)
	router.GET("/charts/sheets/:name", h.SheetChart)

	// 数据导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 账号与月度 KPI
	router.POST("/users", h.RegisterUser)
	router.POST("/login", h.Login)
	kpis := router.Group("/kpis", h.basicAuth())
	kpis.GET("", h.ListKPIs)
	kpis.POST("", h.AddKPI)
	kpis.GET("/summary", h.KPISummary)
}

// effectiveScoring 启动配置叠加数据库覆盖项
func (h *Handler) effectiveScoring() model.ScoringOptions {
	opts := h.scoring
	if opts.WeightPercentThreshold <= 0 {
		opts = model.DefaultScoringOptions()
	}
	if h.store == nil {
		return opts
	}
	merged, err := h.store.ApplyScoringOverrides(opts)
	if err != nil {
		h.log.WithError(err).Warn("load scoring overrides failed")
		return opts
	}
	return merged
}

// sessionID 读取请求中的会话 ID；不存在时返回空串
func sessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	if id, err := c.Cookie(SessionCookie); err == nil {
		return id
	}
	return ""
}

// ensureSession 复用或创建会话并写回 cookie
func (h *Handler) ensureSession(c *gin.Context) string {
	id := sessionID(c)
	if id == "" {
		id = session.NewID()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(session.DefaultTTL.Seconds()), "/", "", false, true)
	c.Header(SessionHeader, id)
	return id
}

// currentResult 当前会话最近一次计分结果
func (h *Handler) currentResult(c *gin.Context) (*session.Entry, bool) {
	id := sessionID(c)
	if id == "" {
		return nil, false
	}
	entry, err := h.sessions.Get(id)
	if err != nil || entry.Result == nil {
		return nil, false
	}
	return entry, true
}

// errorStatus 错误到 HTTP 状态码的映射
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrUnparseableFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody 错误响应体；缺列错误附带表头信息
func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var mc *model.MissingColumnError
	if errors.As(err, &mc) {
		missing := make([]gin.H, 0, len(mc.Missing))
		for _, role := range mc.Missing {
			missing = append(missing, gin.H{"role": role, "label": role.Label()})
		}
		body["kind"] = "missing_column"
		body["sheet"] = mc.Sheet
		body["missing"] = missing
		body["headerRow"] = mc.HeaderRow
		body["rawHeaders"] = mc.RawHeaders
		body["normalizedHeaders"] = mc.NormalizedHeaders
	} else if errors.Is(err, model.ErrUnparseableFile) {
		body["kind"] = "unparseable_file"
	}
	return body
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.WithField("path", c.FullPath()).WithError(err).Error("request failed")
	}
	c.JSON(status, errorBody(err))
}

func noResult(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "尚未导入数据"})
}
