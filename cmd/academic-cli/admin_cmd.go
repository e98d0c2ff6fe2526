package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
)

type createAdminOptions struct {
	username string
	password string
}

func newAdvanceSemesterCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance-semester",
		Short: "推进到期学生的当前学期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.Student.AdvanceSemesters(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已推进 %d 名学生\n", n)
			return nil
		},
	}
}

// newCreateAdminCmd 系统不预置管理员账号，首个管理员通过该命令创建
func newCreateAdminCmd(global *globalOptions) *cobra.Command {
	opts := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "创建管理员账号",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.username = strings.TrimSpace(opts.username)
			if opts.username == "" {
				return fmt.Errorf("--username 不能为空")
			}
			if len(opts.password) < 8 {
				return fmt.Errorf("密码长度至少 8 位")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), a.cfg.Auth.BcryptCost)
			if err != nil {
				return fmt.Errorf("密码加密失败: %w", err)
			}
			user := &model.User{Username: opts.username, PasswordHash: string(hash), Role: model.RoleAdmin}
			if err := a.repo.User.Create(cmd.Context(), user); err != nil {
				if repository.IsUniqueViolation(err) {
					return fmt.Errorf("用户名 %s 已存在", opts.username)
				}
				return fmt.Errorf("创建管理员失败: %w", err)
			}
			a.logger.Info("管理员已创建", zap.String("username", user.Username), zap.Int64("user_id", user.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "用户名（必填）")
	cmd.Flags().StringVar(&opts.password, "password", "", "密码（必填，至少 8 位）")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
