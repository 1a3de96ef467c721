package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"kpiboard/internal/calculator"
	"kpiboard/internal/service/accounts"
	"kpiboard/internal/util"
)

var (
	kpiUser   string
	kpiMonth  string
	kpiName   string
	kpiTarget float64
	kpiActual float64
)

// kpiCmd 月度 KPI 记录
var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "月度 KPI 记录",
	Long: `在 JSON 账号存储中追加与查询月度 KPI。

Example:
  kpiboard kpi add --user an --month 2026-09 --name "Doanh số" --target 200 --actual 150
  kpiboard kpi list --user an --month 2026-09`,
}

var kpiAddCmd = &cobra.Command{
	Use:   "add",
	Short: "追加一条 KPI",
	RunE:  runKPIAdd,
}

var kpiListCmd = &cobra.Command{
	Use:   "list",
	Short: "查询 KPI 与完成率",
	RunE:  runKPIList,
}

func init() {
	rootCmd.AddCommand(kpiCmd)
	kpiCmd.AddCommand(kpiAddCmd, kpiListCmd)

	kpiCmd.PersistentFlags().StringVar(&accountsFile, "store", "", "账号存储文件 (默认 <data_dir>/accounts.json)")
	kpiCmd.PersistentFlags().StringVar(&kpiUser, "user", "", "用户名")
	kpiCmd.PersistentFlags().StringVar(&kpiMonth, "month", "", "月份 YYYY-MM")

	kpiAddCmd.Flags().StringVar(&kpiName, "name", "", "KPI 名称")
	kpiAddCmd.Flags().Float64Var(&kpiTarget, "target", 0, "目标值")
	kpiAddCmd.Flags().Float64Var(&kpiActual, "actual", 0, "实际值")
	_ = kpiAddCmd.MarkFlagRequired("name")
}

func runKPIAdd(cmd *cobra.Command, args []string) error {
	store, err := openAccounts(accountsFile)
	if err != nil {
		return err
	}
	entry := accounts.KPIEntry{
		User:    kpiUser,
		Month:   kpiMonth,
		KPIName: kpiName,
		Target:  kpiTarget,
		Actual:  kpiActual,
	}
	if err := store.AddKPI(entry); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s %s %s: %s\n", entry.User, entry.Month, entry.KPIName,
		util.FormatPercent(calculator.CompletionPct(entry.Actual, entry.Target)))
	return nil
}

func runKPIList(cmd *cobra.Command, args []string) error {
	store, err := openAccounts(accountsFile)
	if err != nil {
		return err
	}
	items, err := store.ListKPIs(accounts.KPIFilter{User: kpiUser, Month: kpiMonth})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %-8s %-24s %12s %12s %12s\n", "User", "Month", "KPI", "Target", "Actual", "Completion")
	for _, k := range items {
		fmt.Fprintf(out, "%-12s %-8s %-24s %12.2f %12.2f %12s\n",
			k.User, k.Month, k.KPIName, k.Target, k.Actual, util.FormatPercent(k.CompletionPct))
	}

	if kpiUser != "" && kpiMonth != "" {
		sum, err := store.MonthlyCompletion(kpiUser, kpiMonth)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s %s: %d KPI, %s\n", sum.User, sum.Month, sum.Count, util.FormatPercent(sum.CompletionPct))
	}
	return nil
}
