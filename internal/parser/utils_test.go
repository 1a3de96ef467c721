package parser

import (
	"math"
	"testing"
)

func TestNormalizeHeader_StripsDiacritics(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Trọng số (%)":       "trong so",
		"KẾ HOẠCH":           "ke hoach",
		"  Thực   hiện\n":    "thuc hien",
		"Chỉ tiêu":           "chi tieu",
		"Đơn vị / Ghi chú":   "don vi ghi chu",
		"Actual_Value-2024":  "actual value 2024",
		"":                   "",
		"%%%":                "",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q) want=%q got=%q", in, want, got)
		}
	}
}

func TestNormalizeHeader_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Trọng số (%)", "KẾ HOẠCH", "Kết quả thực hiện", "Mục tiêu 2025", "đ Đ"} {
		once := NormalizeHeader(in)
		if twice := NormalizeHeader(once); twice != once {
			t.Fatalf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestParseNumber_Lenient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"1,234.5", 1234.5},
		{"30%", 30},
		{" 0.25 ", 0.25},
		{"1 000", 1000},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{"NaN", 0},
		{"inf", 0},
		{"1e400", 0},
		{"-12", -12},
	}
	for _, c := range cases {
		if got := ParseNumber(c.in); got != c.want {
			t.Fatalf("ParseNumber(%q) want=%v got=%v", c.in, c.want, got)
		}
	}
}

func TestCoerceNumber_AnyTypes(t *testing.T) {
	t.Parallel()

	if got := CoerceNumber(nil); got != 0 {
		t.Fatalf("nil want 0 got %v", got)
	}
	if got := CoerceNumber(42); got != 42 {
		t.Fatalf("int want 42 got %v", got)
	}
	if got := CoerceNumber(math.Inf(1)); got != 0 {
		t.Fatalf("+Inf want 0 got %v", got)
	}
	if got := CoerceNumber("70%"); got != 70 {
		t.Fatalf("string want 70 got %v", got)
	}
	if got := CoerceNumber(true); got != 0 {
		t.Fatalf("bool want 0 got %v", got)
	}
}

func TestCellText(t *testing.T) {
	t.Parallel()

	if got := CellText(0.3); got != "0.3" {
		t.Fatalf("float want 0.3 got %q", got)
	}
	if got := CellText(nil); got != "" {
		t.Fatalf("nil want empty got %q", got)
	}
	if got := CellText("Doanh số"); got != "Doanh số" {
		t.Fatalf("string passthrough got %q", got)
	}
}
