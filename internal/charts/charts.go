package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"kpiboard/internal/calculator"
	"kpiboard/internal/model"
)

// AssetsHost echarts 静态资源地址；离线部署时可替换为本地路径
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

const (
	colorPlan   = "#94A3B8"
	colorActual = "#2563EB"
	colorScore  = "#16A34A"
)

// RankingChart 员工总分排名柱状图
func RankingChart(ranked []model.RankedSummary) *charts.Bar {
	names := make([]string, len(ranked))
	scores := make([]opts.BarData, len(ranked))
	for i, r := range ranked {
		names[i] = r.EmployeeID
		scores[i] = opts.BarData{Name: r.EmployeeID, Value: calculator.Round(r.TotalScore, 4)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "KPI ranking", Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Xếp hạng điểm KPI", Subtitle: fmt.Sprintf("%d nhân viên", len(ranked))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Điểm", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(names).
		AddSeries("Tổng điểm", scores,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorScore}),
		)
	return bar
}

// CompletionChart 员工总体完成率柱状图（百分比单独一根轴）
func CompletionChart(ranked []model.RankedSummary) *charts.Bar {
	names := make([]string, len(ranked))
	pcts := make([]opts.BarData, len(ranked))
	for i, r := range ranked {
		names[i] = r.EmployeeID
		pcts[i] = opts.BarData{Name: r.EmployeeID, Value: calculator.Round(r.OverallCompletionPct, 2)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "KPI completion", Width: "100%", Height: "360px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "% hoàn thành"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(names).
		AddSeries("% hoàn thành", pcts,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorActual}),
		)
	return bar
}

// PlanActualChart 单个员工的计划/实际分组柱状图
func PlanActualChart(sheet model.SheetResult) *charts.Bar {
	items := make([]string, len(sheet.Rows))
	plan := make([]opts.BarData, len(sheet.Rows))
	actual := make([]opts.BarData, len(sheet.Rows))
	for i, r := range sheet.Rows {
		name := r.ItemName
		if name == "" {
			name = fmt.Sprintf("#%d", r.RowNo)
		}
		items[i] = name
		plan[i] = opts.BarData{Name: name, Value: r.Plan}
		actual[i] = opts.BarData{Name: name, Value: r.Actual}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: sheet.Name, Width: "100%", Height: "420px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Kế hoạch và thực hiện: %s", sheet.Name),
			Subtitle: fmt.Sprintf("Điểm %.4f, hoàn thành %.2f%%", sheet.Summary.TotalScore, sheet.Summary.OverallCompletionPct),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	bar.SetXAxis(items).
		AddSeries("Kế hoạch", plan, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorPlan})).
		AddSeries("Thực hiện", actual,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorActual}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// RenderDashboard 排名图、完成率图 + 每个员工的计划/实际图
func RenderDashboard(w io.Writer, result *model.WorkbookResult) error {
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.PageTitle = "KPI dashboard"

	if result == nil || len(result.Ranking) == 0 {
		page.AddCharts(RankingChart(nil))
		return page.Render(w)
	}

	page.AddCharts(RankingChart(result.Ranking), CompletionChart(result.Ranking))
	for _, sheet := range result.Sheets {
		page.AddCharts(PlanActualChart(sheet))
	}
	return page.Render(w)
}

// RenderChart 渲染单个图表页面
func RenderChart(w io.Writer, bar *charts.Bar) error {
	return bar.Render(w)
}
