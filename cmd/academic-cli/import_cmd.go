package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/workbook"
)

type importRosterOptions struct {
	file      string
	teacherNo string
}

func newImportCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "导入 students / courses / enrollments 工作表（管理员导入）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			book, err := openWorkbook(args[0], a.cfg.Import.MaxRowsPerSheet)
			if err != nil {
				return err
			}
			summary, err := a.svc.Import.ImportCourses(cmd.Context(), book)
			if err != nil {
				return err
			}
			a.logger.Info("导入完成",
				zap.String("file", args[0]),
				zap.Int("courses_created", summary.CoursesCreated),
				zap.Int("students_created", summary.StudentsCreated),
				zap.Int("errors", len(summary.Errors)),
			)
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newImportRosterCmd(global *globalOptions) *cobra.Command {
	opts := &importRosterOptions{}

	cmd := &cobra.Command{
		Use:   "import-roster <file.xlsx>",
		Short: "以指定教师身份导入单门课程名单",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.teacherNo = strings.TrimSpace(opts.teacherNo)
			if opts.teacherNo == "" {
				return fmt.Errorf("--teacher-no 不能为空")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			a, err := openApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runImportRoster(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.teacherNo, "teacher-no", "", "授课教师工号（必填）")
	_ = cmd.MarkFlagRequired("teacher-no")
	return cmd
}

func runImportRoster(cmd *cobra.Command, a *app, opts *importRosterOptions) error {
	actor, err := teacherActor(cmd.Context(), a.repo, opts.teacherNo)
	if err != nil {
		return err
	}
	book, err := openWorkbook(opts.file, a.cfg.Import.MaxRowsPerSheet)
	if err != nil {
		return err
	}
	summary, err := a.svc.Import.ImportCourseRoster(cmd.Context(), actor, book)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), summary)
}

func teacherActor(ctx context.Context, repo *repository.Repository, teacherNo string) (service.Actor, error) {
	teacher, err := repo.Teacher.GetByNo(ctx, teacherNo)
	if err != nil {
		if repository.IsNotFound(err) {
			return service.Actor{}, fmt.Errorf("教师 %s 不存在", teacherNo)
		}
		return service.Actor{}, fmt.Errorf("查询教师失败: %w", err)
	}
	id := teacher.ID
	return service.Actor{Role: model.RoleTeacher, RefID: &id}, nil
}

func newRosterTemplateCmd(global *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "roster-template",
		Short: "生成课程名单导入示例文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			buf, filename, err := a.svc.Import.RosterTemplate()
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = filename
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("写入文件失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出路径（默认使用模板文件名）")
	return cmd
}

func openWorkbook(path string, maxRows int) (*workbook.Book, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return nil, fmt.Errorf("仅支持 .xlsx 文件: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()
	return workbook.Open(f, maxRows)
}
