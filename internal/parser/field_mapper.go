package parser

import (
	"kpiboard/internal/model"
)

// RoleTokens 各角色可识别的关键词（规范化后的子串）
var RoleTokens = map[model.ColumnRole][]string{
	model.RoleItemName: {"chi tieu", "kpi", "ten", "noi dung"},
	model.RoleWeight:   {"trong so", "weight", "ty trong"},
	model.RolePlan:     {"ke hoach", "target", "plan", "muc tieu"},
	model.RoleActual:   {"thuc hien", "actual", "achieved", "result", "ket qua"},
}

// FieldMapper 表头 -> 角色映射器
type FieldMapper struct {
	tokens map[model.ColumnRole][]string
}

// NewFieldMapper 创建字段映射器（使用默认关键词）
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{tokens: RoleTokens}
}

// NewFieldMapperWithTokens 使用自定义关键词创建映射器；关键词会先经过规范化
func NewFieldMapperWithTokens(tokens map[model.ColumnRole][]string) *FieldMapper {
	normalized := make(map[model.ColumnRole][]string, len(tokens))
	for role, list := range tokens {
		for _, tok := range list {
			if n := NormalizeHeader(tok); n != "" {
				normalized[role] = append(normalized[role], n)
			}
		}
	}
	return &FieldMapper{tokens: normalized}
}

// MatchRole 判断规范化表头是否满足某角色
func (m *FieldMapper) MatchRole(normalizedHeader string, role model.ColumnRole) bool {
	if normalizedHeader == "" {
		return false
	}
	_, ok := ContainsAny(normalizedHeader, m.tokens[role])
	return ok
}

// Resolve 解析一行表头：每个角色取从左到右第一个命中的列
func (m *FieldMapper) Resolve(headers []string) model.HeaderMapping {
	mapping := model.HeaderMapping{
		Columns:    make(map[model.ColumnRole]int, 4),
		Raw:        append([]string(nil), headers...),
		Normalized: make([]string, len(headers)),
	}
	for i, h := range headers {
		mapping.Normalized[i] = NormalizeHeader(h)
	}

	for _, role := range model.AllRoles() {
		for idx, col := range mapping.Normalized {
			if m.MatchRole(col, role) {
				mapping.Columns[role] = idx
				break
			}
		}
	}
	return mapping
}

// RowScore 统计一行中出现的角色族数量（0-4）
func (m *FieldMapper) RowScore(cells []string) int {
	normalized := make([]string, len(cells))
	for i, c := range cells {
		normalized[i] = NormalizeHeader(c)
	}
	score := 0
	for _, role := range model.AllRoles() {
		for _, col := range normalized {
			if m.MatchRole(col, role) {
				score++
				break
			}
		}
	}
	return score
}
