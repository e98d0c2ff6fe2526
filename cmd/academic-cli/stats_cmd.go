package main

import (
	"github.com/spf13/cobra"

	"github.com/YuYe10/DB-EX3/internal/dto"
)

func newStatsCmd(global *globalOptions) *cobra.Command {
	filter := dto.StatisticsFilter{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "计算课程统计并回写及格率/优秀率",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.Statistics.Compute(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&filter.CourseCode, "code", "", "按课程号过滤（子串，不区分大小写）")
	cmd.Flags().StringVar(&filter.CourseName, "name", "", "按课程名过滤（子串，不区分大小写）")
	return cmd
}
