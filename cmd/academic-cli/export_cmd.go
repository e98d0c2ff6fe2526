package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuYe10/DB-EX3/internal/repository"
	"github.com/YuYe10/DB-EX3/internal/service"
)

type exportOptions struct {
	courseID   int64
	courseCode string
	output     string
}

func newExportCmd(global *globalOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出单门课程成绩为 Excel",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.courseCode = strings.TrimSpace(opts.courseCode)
			if (opts.courseID == 0) == (opts.courseCode == "") {
				return fmt.Errorf("--course-id 与 --course-code 必须且只能指定一个")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runExport(cmd, a, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.courseID, "course-id", 0, "课程 ID")
	cmd.Flags().StringVar(&opts.courseCode, "course-code", "", "课程号")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "输出路径；为目录时使用默认文件名")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, opts *exportOptions) error {
	ctx := cmd.Context()
	courseID := opts.courseID
	if opts.courseCode != "" {
		course, err := a.repo.Course.GetByCode(ctx, opts.courseCode)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("课程 %s 不存在", opts.courseCode)
			}
			return fmt.Errorf("查询课程失败: %w", err)
		}
		courseID = course.ID
	}

	buf, filename, err := a.svc.Export.ExportCourse(ctx, service.SystemActor(), courseID)
	if err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("课程 %d 不存在", courseID)
	}

	path := filename
	if opts.output != "" {
		path = opts.output
		if info, err := os.Stat(opts.output); err == nil && info.IsDir() {
			path = filepath.Join(opts.output, filename)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
