package model

// ColumnRole 逻辑列角色（表头识别的目标）
type ColumnRole string

const (
	RoleItemName ColumnRole = "ItemName" // 指标名称
	RoleWeight   ColumnRole = "Weight"   // 权重
	RolePlan     ColumnRole = "Plan"     // 计划值
	RoleActual   ColumnRole = "Actual"   // 实际值
)

// AllRoles 按固定顺序返回全部角色
func AllRoles() []ColumnRole {
	return []ColumnRole{RoleItemName, RoleWeight, RolePlan, RoleActual}
}

// Label 返回角色在原始表格中的越南语列名
func (r ColumnRole) Label() string {
	switch r {
	case RoleItemName:
		return "Chỉ tiêu"
	case RoleWeight:
		return "Trọng số"
	case RolePlan:
		return "Kế hoạch"
	case RoleActual:
		return "Thực hiện"
	}
	return string(r)
}

// RawSheet 原始工作表：名称 + 二维单元格
type RawSheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// HeaderMapping 角色到列索引的映射结果
type HeaderMapping struct {
	HeaderRow  int                `json:"headerRow"`
	Columns    map[ColumnRole]int `json:"columns"`
	Raw        []string           `json:"rawHeaders"`
	Normalized []string           `json:"normalizedHeaders"`
	Fallback   bool               `json:"fallback"`
}

// Missing 返回未匹配的角色（按 AllRoles 顺序）
func (m HeaderMapping) Missing() []ColumnRole {
	var missing []ColumnRole
	for _, role := range AllRoles() {
		if _, ok := m.Columns[role]; !ok {
			missing = append(missing, role)
		}
	}
	return missing
}

// ParsedRow 解析后的数据行（数值已宽松转换）
type ParsedRow struct {
	RowNo    int     `json:"rowNo"`
	ItemName string  `json:"itemName"`
	Weight   float64 `json:"weight"`
	Plan     float64 `json:"plan"`
	Actual   float64 `json:"actual"`
}

// ParsedSheet 单个 sheet 的解析产物
type ParsedSheet struct {
	Name     string        `json:"name"`
	Mapping  HeaderMapping `json:"mapping"`
	Rows     []ParsedRow   `json:"rows"`
	Warnings []string      `json:"warnings,omitempty"`
}

// NormalizedRow 计分后的行
type NormalizedRow struct {
	RowNo            int     `json:"rowNo"`
	ItemName         string  `json:"itemName"`
	Weight           float64 `json:"weight"`
	WeightNormalized float64 `json:"weightNormalized"`
	Plan             float64 `json:"plan"`
	Actual           float64 `json:"actual"`
	CompletionRatio  float64 `json:"completionRatio"`
	Score            float64 `json:"score"`
}

// SheetSummary 单个员工（sheet）的汇总
type SheetSummary struct {
	EmployeeID           string  `json:"employee_id"`
	TotalScore           float64 `json:"total_score"`
	TotalPlan            float64 `json:"total_plan"`
	TotalActual          float64 `json:"total_actual"`
	OverallCompletionPct float64 `json:"overall_completion_pct"`
}

// SheetResult 单个 sheet 的计分结果
type SheetResult struct {
	Name              string          `json:"name"`
	Mapping           HeaderMapping   `json:"mapping"`
	Rows              []NormalizedRow `json:"rows"`
	Summary           SheetSummary    `json:"summary"`
	WeightsNormalized bool            `json:"weightsNormalized"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// RankedSummary 带名次的汇总
type RankedSummary struct {
	Rank int `json:"rank"`
	SheetSummary
}
