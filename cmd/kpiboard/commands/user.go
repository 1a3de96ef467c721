package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"kpiboard/internal/config"
	"kpiboard/internal/service/accounts"
)

var (
	accountsFile string
	userPassword string
	userRole     string
)

// userCmd 账号管理
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "账号管理",
	Long: `管理 JSON 账号存储中的用户。

Example:
  kpiboard user add an --password secret
  kpiboard user add boss --password secret --role admin
  kpiboard user list`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "注册用户",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出用户",
	RunE:  runUserList,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userListCmd)

	userCmd.PersistentFlags().StringVar(&accountsFile, "store", "", "账号存储文件 (默认 <data_dir>/accounts.json)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "密码")
	userAddCmd.Flags().StringVar(&userRole, "role", accounts.RoleEmployee, "角色 (admin|employee)")
	_ = userAddCmd.MarkFlagRequired("password")
}

// openAccounts 打开账号存储；--store 优先于配置
func openAccounts(path string) (*accounts.Store, error) {
	if path == "" {
		cfg, _ := loadConfig()
		path = config.AccountsPath(cfg)
	}
	return accounts.Open(path)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	store, err := openAccounts(accountsFile)
	if err != nil {
		return err
	}
	if err := store.Register(args[0], userPassword, userRole); err != nil {
		if errors.Is(err, accounts.ErrUserExists) {
			return fmt.Errorf("用户 %s 已存在", args[0])
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ 已注册 %s (%s)\n", args[0], userRole)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	store, err := openAccounts(accountsFile)
	if err != nil {
		return err
	}
	roles, names, err := store.Users()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %s\n", "User", "Role")
	for _, name := range names {
		fmt.Fprintf(out, "%-20s %s\n", name, roles[name])
	}
	return nil
}
