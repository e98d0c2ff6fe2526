package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
	"github.com/YuYe10/DB-EX3/pkg/metrics"
)

// AdmissionService 学生自助选课的准入校验
type AdmissionService interface {
	// Admit 依次校验专业、培养方案、学期与重复选课，全部通过后创建选课记录
	Admit(ctx context.Context, studentID, courseID int64) (int64, error)
}

type admissionService struct {
	repo     *repository.Repository
	resolver EntityResolver
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAdmissionService 创建 AdmissionService 实例
func NewAdmissionService(repo *repository.Repository, resolver EntityResolver, m *metrics.Metrics, logger *zap.Logger) AdmissionService {
	return &admissionService{repo: repo, resolver: resolver, metrics: m, logger: logger}
}

func (s *admissionService) Admit(ctx context.Context, studentID, courseID int64) (int64, error) {
	var enrollmentID int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		id, err := s.admit(ctx, tx, studentID, courseID)
		enrollmentID = id
		return err
	})

	outcome := "admitted"
	if err != nil {
		outcome = strings.ToLower(string(apperrors.KindOf(err)))
	}
	s.metrics.IncAdmission(outcome)

	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.logger.Error("选课失败",
				zap.Int64("student_id", studentID),
				zap.Int64("course_id", courseID),
				zap.Error(err),
			)
			return 0, apperrors.Internal(err, "选课失败")
		}
		return 0, err
	}
	return enrollmentID, nil
}

func (s *admissionService) admit(ctx context.Context, tx *repository.Repository, studentID, courseID int64) (int64, error) {
	// 1. 学生及其专业
	student, err := tx.Student.GetByID(ctx, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, apperrors.NotFound("学生不存在")
		}
		return 0, err
	}
	if student.Major == "" {
		return 0, apperrors.NotFound("学生未设置专业")
	}

	// 2. 专业培养方案
	plan, err := tx.MajorPlan.GetByMajor(ctx, student.Major)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, apperrors.Validation("专业 %s 暂无培养方案，无法选课", student.Major)
		}
		return 0, err
	}

	// 3. 课程是否在方案中
	semesters, err := tx.MajorPlan.CourseSemesters(ctx, plan.ID, courseID)
	if err != nil {
		return 0, err
	}
	if len(semesters) == 0 {
		return 0, apperrors.Validation("该课程不在你的培养方案中")
	}

	// 4. 学期闸门：同一课程可能排在多个学期，命中任意一个即可
	if !containsInt(semesters, student.CurrentSemester) {
		return 0, apperrors.Validation("该课程安排在%s，你当前为第%d学期",
			formatSemesters(semesters), student.CurrentSemester)
	}

	// 5. 重复选课
	if _, err := tx.Enrollment.GetByPair(ctx, studentID, courseID); err == nil {
		return 0, apperrors.Conflict("已选该课程")
	} else if !repository.IsNotFound(err) {
		return 0, err
	}

	// 6. 写入；并发请求抢先插入时按重复选课处理
	id, outcome, err := s.resolver.EnsureEnrollment(ctx, tx, &model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusEnrolled,
	})
	if err != nil {
		return 0, err
	}
	if outcome != OutcomeCreated {
		return 0, apperrors.Conflict("已选该课程")
	}

	s.logger.Info("学生选课",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int64("enrollment_id", id),
	)
	return id, nil
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// formatSemesters 如 "第3学期"、"第2、4学期"
func formatSemesters(semesters []int) string {
	parts := make([]string, len(semesters))
	for i, s := range semesters {
		parts[i] = fmt.Sprint(s)
	}
	return "第" + strings.Join(parts, "、") + "学期"
}
