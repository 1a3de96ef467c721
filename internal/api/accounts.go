package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/service/accounts"
)

const (
	ctxUser = "kpiboard.user"
	ctxRole = "kpiboard.role"
)

// RegisterUserRequest 注册请求
type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddKPIRequest 新增月度 KPI；User 为空时记到当前用户
type AddKPIRequest struct {
	User    string  `json:"user"`
	Month   string  `json:"month"`
	KPIName string  `json:"kpi_name"`
	Target  float64 `json:"target"`
	Actual  float64 `json:"actual"`
}

func accountStatus(err error) int {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, accounts.ErrAdminRequired):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) accountsReady(c *gin.Context) bool {
	if h.accounts == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "账号存储不可用"})
		return false
	}
	return true
}

// basicAuth 使用账号存储校验 HTTP Basic 凭据
func (h *Handler) basicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.accountsReady(c) {
			return
		}
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="kpiboard"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "需要登录"})
			return
		}
		role, err := h.accounts.Authenticate(user, pass)
		if err != nil {
			c.Header("WWW-Authenticate", `Basic realm="kpiboard"`)
			c.AbortWithStatusJSON(accountStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(ctxUser, user)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// scopeUser 员工只能访问自己的数据；管理员可指定任意用户
func scopeUser(c *gin.Context, requested string) (string, bool) {
	user := c.GetString(ctxUser)
	if c.GetString(ctxRole) == accounts.RoleAdmin {
		return requested, true
	}
	if requested != "" && requested != user {
		c.JSON(http.StatusForbidden, gin.H{"error": "无权访问其他用户的数据"})
		return "", false
	}
	return user, true
}

// RegisterUser 注册账号
// 匿名调用只能注册员工；创建管理员需要管理员的 Basic 凭据（存储为空时除外）
// POST /api/users
func (h *Handler) RegisterUser(c *gin.Context) {
	if !h.accountsReady(c) {
		return
	}
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	byAdmin := false
	if user, pass, ok := c.Request.BasicAuth(); ok {
		role, err := h.accounts.Authenticate(user, pass)
		if err != nil {
			c.Header("WWW-Authenticate", `Basic realm="kpiboard"`)
			c.JSON(accountStatus(err), gin.H{"error": err.Error()})
			return
		}
		byAdmin = role == accounts.RoleAdmin
	}

	if err := h.accounts.RegisterAs(req.Username, req.Password, req.Role, byAdmin); err != nil {
		c.JSON(accountStatus(err), gin.H{"error": err.Error()})
		return
	}
	role := req.Role
	if role == "" {
		role = accounts.RoleEmployee
	}
	h.log.WithFields(map[string]any{"user": req.Username, "role": role}).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{"username": req.Username, "role": role})
}

// Login 校验账号密码并返回角色
// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	if !h.accountsReady(c) {
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}
	role, err := h.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(accountStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": req.Username, "role": role})
}

// ListKPIs 查询月度 KPI
// GET /api/kpis?user=&month=
func (h *Handler) ListKPIs(c *gin.Context) {
	user, ok := scopeUser(c, c.Query("user"))
	if !ok {
		return
	}
	items, err := h.accounts.ListKPIs(accounts.KPIFilter{User: user, Month: c.Query("month")})
	if err != nil {
		c.JSON(accountStatus(err), gin.H{"error": err.Error()})
		return
	}
	if items == nil {
		items = []accounts.KPIView{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddKPI 新增月度 KPI
// POST /api/kpis
func (h *Handler) AddKPI(c *gin.Context) {
	var req AddKPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}
	user, ok := scopeUser(c, req.User)
	if !ok {
		return
	}
	if user == "" {
		user = c.GetString(ctxUser)
	}
	entry := accounts.KPIEntry{
		User:    user,
		Month:   req.Month,
		KPIName: req.KPIName,
		Target:  req.Target,
		Actual:  req.Actual,
	}
	if err := h.accounts.AddKPI(entry); err != nil {
		c.JSON(accountStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// KPISummary 某用户某月的汇总完成率
// GET /api/kpis/summary?user=&month=
func (h *Handler) KPISummary(c *gin.Context) {
	user, ok := scopeUser(c, c.Query("user"))
	if !ok {
		return
	}
	if user == "" {
		user = c.GetString(ctxUser)
	}
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 month"})
		return
	}
	sum, err := h.accounts.MonthlyCompletion(user, month)
	if err != nil {
		c.JSON(accountStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}
