package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"kpiboard/internal/config"
	"kpiboard/internal/logger"
)

var (
	configFile string
	logLevel   string
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "kpiboard",
	Short: "KPI 工作簿计分与排名工具",
	Long: `kpiboard 读取每个员工一个 sheet 的 KPI 工作簿，
识别表头、宽松解析数值、归一化权重并计算得分与排名。

Usage:
  kpiboard [command]

Examples:
  kpiboard serve
  kpiboard score thang10.xlsx --export ranking.xlsx
  kpiboard user add an --password secret
  kpiboard kpi list --user an --month 2026-09`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is config.toml next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug|info|warn|error)")
}

// loadConfig 加载配置；文件损坏时回退到默认配置
func loadConfig() (*config.AppConfig, config.LoadConfigInfo) {
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if configFile != "" {
		cfg, info, err = config.LoadFile(configFile)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, info
}

func newLogger(cfg *config.AppConfig) *logger.Logger {
	return logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}
