package accounts

import (
	"errors"
	"regexp"
)

// 角色
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAdminRequired      = errors.New("admin role requires an admin caller")
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// User 账号记录
type User struct {
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// KPIEntry 月度 KPI 记录
type KPIEntry struct {
	User    string  `json:"user"`
	Month   string  `json:"month"` // YYYY-MM
	KPIName string  `json:"kpi_name"`
	Target  float64 `json:"target"`
	Actual  float64 `json:"actual"`
}

// Database 持久化文件结构
type Database struct {
	Users map[string]User `json:"users"`
	KPIs  []KPIEntry      `json:"kpis"`
}

// KPIFilter 查询条件；空字段不过滤
type KPIFilter struct {
	User  string
	Month string
}

// KPIView 带完成率的 KPI 记录
type KPIView struct {
	KPIEntry
	CompletionPct float64 `json:"completion_pct"`
}

// MonthlySummary 某用户某月的汇总
type MonthlySummary struct {
	User          string  `json:"user"`
	Month         string  `json:"month"`
	Count         int     `json:"count"`
	TotalTarget   float64 `json:"total_target"`
	TotalActual   float64 `json:"total_actual"`
	CompletionPct float64 `json:"completion_pct"`
}
