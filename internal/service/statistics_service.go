package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/config"
	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
	"github.com/YuYe10/DB-EX3/pkg/grading"
)

// StatisticsService 课程成绩统计
type StatisticsService interface {
	// Compute 计算全部课程的统计值并回写及格率/优秀率，返回按过滤条件筛选后的视图
	Compute(ctx context.Context, filter dto.StatisticsFilter) (*dto.StatisticsResponse, error)
	// SummarizeEnrollments 单门课程的统计，供导出复用
	SummarizeEnrollments(enrollments []model.Enrollment) grading.Summary
}

type statisticsService struct {
	repo       *repository.Repository
	thresholds grading.Thresholds
	logger     *zap.Logger
}

// NewStatisticsService 创建 StatisticsService 实例
func NewStatisticsService(cfg config.GradingConfig, repo *repository.Repository, logger *zap.Logger) StatisticsService {
	th := grading.DefaultThresholds
	if cfg.PassThreshold > 0 {
		th.Pass = cfg.PassThreshold
	}
	if cfg.ExcellentThreshold > 0 {
		th.Excellent = cfg.ExcellentThreshold
	}
	return &statisticsService{repo: repo, thresholds: th, logger: logger}
}

func (s *statisticsService) Compute(ctx context.Context, filter dto.StatisticsFilter) (*dto.StatisticsResponse, error) {
	resp := &dto.StatisticsResponse{Courses: []dto.CourseStatistics{}}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		counts, err := s.counts(ctx, tx)
		if err != nil {
			return err
		}
		resp.Counts = counts

		courses, err := tx.Course.List(ctx, repository.CourseFilter{})
		if err != nil {
			return err
		}
		rows, err := tx.Enrollment.ListGrades(ctx)
		if err != nil {
			return err
		}
		byCourse := make(map[int64][]*float64, len(courses))
		for _, r := range rows {
			byCourse[r.CourseID] = append(byCourse[r.CourseID], grading.Effective(r.FinalGrade, r.Grade))
		}

		// 回写针对全部课程，过滤只影响返回视图
		for _, c := range courses {
			sum := grading.Summarize(byCourse[c.ID], s.thresholds)
			if err := tx.Course.UpdateRates(ctx, c.ID, sum.PassRate, sum.ExcellentRate); err != nil {
				return err
			}
			if !matchesFilter(c, filter) {
				continue
			}
			resp.Courses = append(resp.Courses, dto.CourseStatistics{
				CourseID:      c.ID,
				CourseCode:    c.CourseCode,
				Name:          c.Name,
				EnrolledCount: sum.EnrolledCount,
				AvgGrade:      sum.AvgGrade,
				PassRate:      sum.PassRate,
				ExcellentRate: sum.ExcellentRate,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("计算课程统计失败", zap.Error(err))
		return nil, apperrors.Internal(err, "计算课程统计失败")
	}
	return resp, nil
}

func (s *statisticsService) counts(ctx context.Context, tx *repository.Repository) (dto.EntityCounts, error) {
	var c dto.EntityCounts
	var err error
	if c.Students, err = tx.Student.Count(ctx); err != nil {
		return c, err
	}
	if c.Teachers, err = tx.Teacher.Count(ctx); err != nil {
		return c, err
	}
	if c.Courses, err = tx.Course.Count(ctx); err != nil {
		return c, err
	}
	if c.Enrollments, err = tx.Enrollment.Count(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// matchesFilter 课程号、课程名大小写不敏感的子串匹配
func matchesFilter(c model.Course, f dto.StatisticsFilter) bool {
	if f.CourseCode != "" && !strings.Contains(strings.ToLower(c.CourseCode), strings.ToLower(f.CourseCode)) {
		return false
	}
	if f.CourseName != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.CourseName)) {
		return false
	}
	return true
}

func (s *statisticsService) SummarizeEnrollments(enrollments []model.Enrollment) grading.Summary {
	effective := make([]*float64, 0, len(enrollments))
	for _, e := range enrollments {
		effective = append(effective, grading.Effective(e.FinalGrade, e.Grade))
	}
	return grading.Summarize(effective, s.thresholds)
}
