package parser

import (
	"errors"
	"strings"
	"testing"

	"kpiboard/internal/model"
)

func TestFieldMapper_Resolve_VietnameseHeaders(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper()
	mapping := m.Resolve([]string{"STT", "Chỉ tiêu", "Trọng số (%)", "KẾ HOẠCH", "Thực hiện"})

	want := map[model.ColumnRole]int{
		model.RoleItemName: 1,
		model.RoleWeight:   2,
		model.RolePlan:     3,
		model.RoleActual:   4,
	}
	for role, idx := range want {
		got, ok := mapping.Columns[role]
		if !ok || got != idx {
			t.Fatalf("role %s want col %d got %d (ok=%v)", role, idx, got, ok)
		}
	}
	if len(mapping.Missing()) != 0 {
		t.Fatalf("unexpected missing: %v", mapping.Missing())
	}
}

func TestFieldMapper_Resolve_FirstMatchWins(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper()
	mapping := m.Resolve([]string{"KPI", "Weight", "Target", "Plan B", "Actual", "Result"})
	if mapping.Columns[model.RolePlan] != 2 {
		t.Fatalf("plan want col 2 got %d", mapping.Columns[model.RolePlan])
	}
	if mapping.Columns[model.RoleActual] != 4 {
		t.Fatalf("actual want col 4 got %d", mapping.Columns[model.RoleActual])
	}
}

func TestFieldMapper_Resolve_SingleRoles(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper()
	if mapping := m.Resolve([]string{"Trọng số (%)"}); mapping.Columns[model.RoleWeight] != 0 {
		t.Fatalf("Trọng số (%%) should resolve to Weight: %+v", mapping.Columns)
	}
	mapping := m.Resolve([]string{"KẾ HOẠCH"})
	if idx, ok := mapping.Columns[model.RolePlan]; !ok || idx != 0 {
		t.Fatalf("KẾ HOẠCH should resolve to Plan: %+v", mapping.Columns)
	}
}

func TestKPIParser_ParseRows_MissingWeight(t *testing.T) {
	t.Parallel()

	p := NewKPIParser(nil, 0)
	_, err := p.ParseRows("NV01", [][]string{
		{"Tên", "Mục tiêu", "Kết quả"},
		{"Doanh số", "100", "80"},
	})
	if err == nil {
		t.Fatalf("expected missing column error")
	}
	if !errors.Is(err, model.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	var mc *model.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("expected *MissingColumnError, got %T", err)
	}
	if len(mc.Missing) != 1 || mc.Missing[0] != model.RoleWeight {
		t.Fatalf("missing want [Weight] got %v", mc.Missing)
	}
	msg := err.Error()
	if !strings.Contains(msg, "Weight") || !strings.Contains(msg, "Trọng số") {
		t.Fatalf("error should name Weight/Trọng số: %s", msg)
	}
	if mc.NormalizedHeaders[1] != "muc tieu" || mc.RawHeaders[0] != "Tên" {
		t.Fatalf("headers not carried: raw=%v normalized=%v", mc.RawHeaders, mc.NormalizedHeaders)
	}
}
