package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"kpiboard/internal/charts"
	"kpiboard/internal/exporter"
	"kpiboard/internal/importer"
	"kpiboard/internal/model"
	"kpiboard/internal/util"
)

var (
	scoreClamp       bool
	scoreSkipInvalid bool
	scoreExport      string
	scoreChart       string
	scoreDetails     bool
)

// scoreCmd 对工作簿计分并打印排名
var scoreCmd = &cobra.Command{
	Use:   "score <file.xlsx>",
	Short: "对 KPI 工作簿计分并打印排名",
	Long: `读取工作簿，每个 sheet 视为一名员工：
识别表头、计算完成率与得分，按总分降序输出排名。

Example:
  kpiboard score thang10.xlsx
  kpiboard score thang10.xlsx --clamp --skip-invalid
  kpiboard score thang10.xlsx --export ranking.csv --chart ranking.html`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreClamp, "clamp", false, "完成率截断到 100%")
	scoreCmd.Flags().BoolVar(&scoreSkipInvalid, "skip-invalid", false, "跳过缺列的 sheet 而不是中止")
	scoreCmd.Flags().StringVar(&scoreExport, "export", "", "导出汇总到 .xlsx 或 .csv")
	scoreCmd.Flags().StringVar(&scoreChart, "chart", "", "输出图表 HTML")
	scoreCmd.Flags().BoolVar(&scoreDetails, "details", false, "xlsx 导出附带每名员工的明细表")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, _ := loadConfig()
	log := newLogger(cfg)
	out := cmd.OutOrStdout()

	scoring := cfg.ScoringOptions()
	if cmd.Flags().Changed("clamp") {
		scoring.ClampCompletion = scoreClamp
	}
	if cmd.Flags().Changed("skip-invalid") && scoreSkipInvalid {
		scoring.FailurePolicy = model.FailureSkip
	}

	coordinator := importer.NewCoordinator(nil, log)
	result, err := coordinator.Ingest(context.Background(), importer.ImportOptions{
		FilePath: args[0],
		Scoring:  scoring,
		OnProgress: func(evt importer.ProgressEvent) {
			if evt.Type == "warning" {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", evt.Message)
			}
		},
	})
	if err != nil {
		return err
	}

	printRanking(out, result)

	if scoreExport != "" {
		if err := writeExportFile(scoreExport, result, scoreDetails); err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ 已导出: %s\n", scoreExport)
	}
	if scoreChart != "" {
		if err := writeChartFile(scoreChart, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ 图表: %s\n", scoreChart)
	}
	return nil
}

// printRanking 打印排名表、统计与跳过的 sheet
func printRanking(w io.Writer, result *model.WorkbookResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s  (clamp=%v, policy=%s)\n", result.FileName, result.Options.ClampCompletion, result.Options.FailurePolicy)
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "%-5s %-20s %12s %12s %14s %14s\n", "Rank", "Employee", "Score", "Completion", "Plan", "Actual")
	for _, r := range result.Ranking {
		fmt.Fprintf(w, "%-5d %-20s %12.4f %12s %14.2f %14.2f\n",
			r.Rank, r.EmployeeID, r.TotalScore, util.FormatPercent(r.OverallCompletionPct), r.TotalPlan, r.TotalActual)
	}
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────────────────")
	if result.Stats.Count > 0 {
		fmt.Fprintf(w, "  n=%d  mean=%.4f  std=%.4f  min=%.4f  max=%.4f\n",
			result.Stats.Count, result.Stats.Mean, result.Stats.StdDev, result.Stats.Min, result.Stats.Max)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.Name, s.Reason)
	}
}

func writeExportFile(path string, result *model.WorkbookResult, details bool) error {
	opts := exporter.OptionsFrom(result.Options)
	opts.IncludeDetails = details
	opts.Sheets = result.Sheets

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = exporter.WriteSummaryCSV(f, result.Ranking, opts)
	} else {
		err = exporter.WriteSummaryXLSX(f, result.Ranking, opts)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeChartFile(path string, result *model.WorkbookResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = charts.RenderDashboard(f, result)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
