package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"kpiboard/internal/config"
	"kpiboard/internal/server"
	"kpiboard/internal/util"
)

var (
	servePort      int
	serveDevMode   bool
	serveDataDir   string
	serveNoBrowser bool
)

// serveCmd 启动 HTTP 仪表盘
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务与图表仪表盘",
	Long: `启动 HTTP API 与图表仪表盘。

config.toml 或 KPIBOARD_PORT 中显式配置的端口优先；
否则使用 --port，并在端口被占用时向后探测。

Example:
  kpiboard serve
  kpiboard serve --port 8080 --no-browser`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	serveCmd.Flags().BoolVar(&serveDevMode, "dev", false, "开发模式")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "不自动打开浏览器")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "==========================================")
	fmt.Fprintln(out, "  kpiboard - KPI 计分与排名")
	fmt.Fprintln(out, "==========================================")

	cfg, info := loadConfig()

	// 命令行参数覆盖配置
	if !info.PortSpecified {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		cfg.Server.Port = util.FindAvailablePort(cfg.Server.Port)
	}
	if serveDevMode {
		cfg.Server.DevMode = true
	}
	if serveDataDir != "" {
		cfg.Data.DataDir = serveDataDir
	}

	log := newLogger(cfg)

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}
	fmt.Fprintf(out, "数据目录: %s\n", dataDir)

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		errCh <- srv.Run(addr)
	}()

	if !cfg.Server.DevMode && !serveNoBrowser {
		fmt.Fprintf(out, "正在打开浏览器: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Fprintf(out, "无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Fprintf(out, "请访问 %s\n", url)
	}

	fmt.Fprintln(out, "\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			_ = srv.Shutdown(context.Background())
			return fmt.Errorf("服务启动失败: %w", err)
		}
		return nil
	case <-quit:
	}

	fmt.Fprintln(out, "\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	return nil
}
