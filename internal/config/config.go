package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"kpiboard/internal/model"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Scoring  ScoringConfig  `toml:"scoring"`
	Log      LogConfig      `toml:"log"`
	Accounts AccountsConfig `toml:"accounts"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ScoringConfig 计分配置
type ScoringConfig struct {
	ClampCompletion        bool    `toml:"clamp_completion"`
	WeightPercentThreshold float64 `toml:"weight_percent_threshold"`
	HeaderScanRows         int     `toml:"header_scan_rows"`
	FailurePolicy          string  `toml:"failure_policy"` // abort/skip
	ScoreDecimals          int     `toml:"score_decimals"`
	PctDecimals            int     `toml:"pct_decimals"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json/console
}

// AccountsConfig 账号与月度 KPI 存储
type AccountsConfig struct {
	StoreFile string `toml:"store_file"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	def := model.DefaultScoringOptions()
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Scoring: ScoringConfig{
			ClampCompletion:        def.ClampCompletion,
			WeightPercentThreshold: def.WeightPercentThreshold,
			HeaderScanRows:         def.HeaderScanRows,
			FailurePolicy:          string(def.FailurePolicy),
			ScoreDecimals:          def.ScoreDecimals,
			PctDecimals:            def.PctDecimals,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Accounts: AccountsConfig{
			StoreFile: "accounts.json",
		},
	}
}

// ScoringOptions 转换为计分参数
func (c *AppConfig) ScoringOptions() model.ScoringOptions {
	def := model.DefaultScoringOptions()
	opts := model.ScoringOptions{
		ClampCompletion:        c.Scoring.ClampCompletion,
		WeightPercentThreshold: c.Scoring.WeightPercentThreshold,
		HeaderScanRows:         c.Scoring.HeaderScanRows,
		FailurePolicy:          model.ParseFailurePolicy(c.Scoring.FailurePolicy),
		ScoreDecimals:          c.Scoring.ScoreDecimals,
		PctDecimals:            c.Scoring.PctDecimals,
	}
	if opts.WeightPercentThreshold <= 0 {
		opts.WeightPercentThreshold = def.WeightPercentThreshold
	}
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = def.HeaderScanRows
	}
	if opts.ScoreDecimals < 0 {
		opts.ScoreDecimals = def.ScoreDecimals
	}
	if opts.PctDecimals < 0 {
		opts.PctDecimals = def.PctDecimals
	}
	return opts
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func baseDir() string {
	exeDir, err := GetExeDir()
	if err != nil || exeDir == "" {
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(filepath.Join(baseDir(), "config.toml"))
}

// LoadFile 从指定路径加载配置；文件不存在时使用默认值，随后应用 .env 与环境变量覆盖
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, info, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, info, err
	}

	// .env 不存在时忽略
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	if applyEnv(cfg) {
		info.PortSpecified = true
	}
	return cfg, info, nil
}

// applyEnv 环境变量覆盖，返回端口是否被覆盖
func applyEnv(cfg *AppConfig) bool {
	portSet := false
	if v := os.Getenv("KPIBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
			portSet = true
		}
	}
	if v := os.Getenv("KPIBOARD_DATA_DIR"); v != "" {
		cfg.Data.DataDir = v
	}
	if v := os.Getenv("KPIBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("KPIBOARD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("KPIBOARD_CLAMP_COMPLETION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.ClampCompletion = b
		}
	}
	if v := os.Getenv("KPIBOARD_FAILURE_POLICY"); v != "" {
		cfg.Scoring.FailurePolicy = strings.ToLower(v)
	}
	return portSet
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(cfg *AppConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(baseDir(), "config.toml"), data, 0644)
}

// ResolveDataDir 数据目录：绝对路径原样返回，相对路径基于可执行文件目录
func ResolveDataDir(cfg *AppConfig) string {
	if filepath.IsAbs(cfg.Data.DataDir) {
		return cfg.Data.DataDir
	}
	return filepath.Join(baseDir(), cfg.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := ResolveDataDir(cfg)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	for _, subdir := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(cfg *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(cfg), subdir, filename)
}

// AccountsPath 账号存储文件路径
func AccountsPath(cfg *AppConfig) string {
	if filepath.IsAbs(cfg.Accounts.StoreFile) {
		return cfg.Accounts.StoreFile
	}
	return filepath.Join(ResolveDataDir(cfg), cfg.Accounts.StoreFile)
}
