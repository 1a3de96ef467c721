package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kpiboard/internal/api"
	"kpiboard/internal/config"
	"kpiboard/internal/logger"
	"kpiboard/internal/service/accounts"
	"kpiboard/internal/service/session"
	"kpiboard/internal/store"
)

// DBFileName sqlite 文件名
const DBFileName = "kpiboard.db"

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	store    *store.Store
	accounts *accounts.Store
	api      *api.Handler
	log      *logger.Logger
	http     *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	sqliteStore, err := store.New(filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	accountStore, err := accounts.Open(config.AccountsPath(cfg))
	if err != nil {
		_ = sqliteStore.Close()
		return nil, fmt.Errorf("failed to open accounts store: %w", err)
	}

	handler := api.NewHandler(api.Deps{
		Store:     sqliteStore,
		Accounts:  accountStore,
		Sessions:  session.NewCache(session.DefaultTTL),
		Scoring:   cfg.ScoringOptions(),
		UploadDir: filepath.Join(dataDir, "uploads"),
		ExportDir: filepath.Join(dataDir, "exports"),
		Logger:    log,
	})

	s := &Server{
		router:   gin.New(),
		store:    sqliteStore,
		accounts: accountStore,
		api:      handler,
		log:      log,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger(s.log))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+api.SessionHeader)
		c.Header("Access-Control-Expose-Headers", api.SessionHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	// 首页：图表仪表盘
	s.router.GET("/", s.api.Dashboard)

	s.router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, "/")
	})
}

// requestLogger 以结构化日志记录每个请求
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(map[string]any{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到关闭
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭并释放存储
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
