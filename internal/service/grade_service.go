package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
	"github.com/YuYe10/DB-EX3/pkg/grading"
	"github.com/YuYe10/DB-EX3/pkg/metrics"
	"github.com/YuYe10/DB-EX3/pkg/patch"
)

// GradeService 成绩录入与加权总评维护
//
// 总评 final_grade 只在平时与期末成绩都存在时有值，
// 等于按课程当前占比（未设置时各 0.5）加权后保留 1 位小数。
type GradeService interface {
	// ApplyScores 录入平时/期末成绩并重算该条选课的总评
	ApplyScores(ctx context.Context, actor Actor, enrollmentID int64, req *dto.UpdateScoresRequest) (*dto.EnrollmentGradeResponse, error)
	// SetCourseWeights 设置课程占比，并按新占比重算该课程全部选课的总评
	SetCourseWeights(ctx context.Context, actor Actor, courseID int64, ordinaryWeight, finalWeight float64) (*dto.WeightsResponse, error)
	// SetLegacyGrade 直接设置单一成绩字段
	SetLegacyGrade(ctx context.Context, actor Actor, enrollmentID int64, grade float64) error
}

type gradeService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, metrics: m, logger: logger}
}

// ────────────────────── ApplyScores ──────────────────────

func (s *gradeService) ApplyScores(ctx context.Context, actor Actor, enrollmentID int64, req *dto.UpdateScoresRequest) (*dto.EnrollmentGradeResponse, error) {
	if !req.OrdinaryScore.Set && !req.FinalScore.Set {
		return nil, apperrors.Validation("至少提供一项成绩")
	}
	if req.OrdinaryScore.Present() && !grading.ScoreInRange(*req.OrdinaryScore.Value) {
		return nil, apperrors.Validation("平时成绩必须在0-100之间")
	}
	if req.FinalScore.Present() && !grading.ScoreInRange(*req.FinalScore.Value) {
		return nil, apperrors.Validation("期末成绩必须在0-100之间")
	}
	if _, ok := actor.StudentID(); ok {
		return nil, apperrors.Permission("学生不能修改成绩")
	}

	ordinary := roundScore(req.OrdinaryScore)
	final := roundScore(req.FinalScore)

	var resp *dto.EnrollmentGradeResponse
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		e, err := s.lockOwnedEnrollment(ctx, tx, actor, enrollmentID)
		if err != nil {
			return err
		}

		if ordinary.Set {
			e.OrdinaryScore = ordinary.Value
		}
		if final.Set {
			e.FinalScore = final.Value
		}
		ow, fw := grading.WeightsOrDefault(e.Course.OrdinaryWeight, e.Course.FinalWeight)
		e.FinalGrade = grading.FinalGrade(e.OrdinaryScore, e.FinalScore, ow, fw)

		columns := patch.Columns(
			patch.Of("ordinary_score", ordinary),
			patch.Of("final_score", final),
		)
		columns["final_grade"] = e.FinalGrade
		if err := tx.Enrollment.Update(ctx, e.ID, columns); err != nil {
			return err
		}
		resp = toEnrollmentGrade(e)
		return nil
	})
	if err != nil {
		return nil, s.fail("录入成绩失败", enrollmentID, err)
	}
	return resp, nil
}

func roundScore(f patch.Field[float64]) patch.Field[float64] {
	if !f.Present() {
		return f
	}
	return patch.Value(grading.RoundGrade(*f.Value))
}

// lockOwnedEnrollment 锁定选课行并校验操作者是否可管理其课程
func (s *gradeService) lockOwnedEnrollment(ctx context.Context, tx *repository.Repository, actor Actor, enrollmentID int64) (*model.Enrollment, error) {
	e, err := tx.Enrollment.GetByIDForUpdate(ctx, enrollmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("选课记录不存在")
		}
		return nil, err
	}
	if e.Course == nil {
		return nil, apperrors.NotFound("课程不存在")
	}
	if !actor.canManageCourse(e.Course) {
		return nil, apperrors.Permission("无权修改该课程的成绩")
	}
	return e, nil
}

func toEnrollmentGrade(e *model.Enrollment) *dto.EnrollmentGradeResponse {
	return &dto.EnrollmentGradeResponse{
		EnrollmentID:  e.ID,
		StudentID:     e.StudentID,
		CourseID:      e.CourseID,
		Grade:         e.Grade,
		OrdinaryScore: e.OrdinaryScore,
		FinalScore:    e.FinalScore,
		FinalGrade:    e.FinalGrade,
	}
}

// ────────────────────── SetCourseWeights ──────────────────────

func (s *gradeService) SetCourseWeights(ctx context.Context, actor Actor, courseID int64, ordinaryWeight, finalWeight float64) (*dto.WeightsResponse, error) {
	// 校验作用于落库的两位小数值
	ow, fw := grading.RoundWeight(ordinaryWeight), grading.RoundWeight(finalWeight)
	if ordinaryWeight < 0 || !grading.WeightInRange(ow) {
		return nil, apperrors.Validation("平时成绩占比必须在0-1之间")
	}
	if finalWeight < 0 || !grading.WeightInRange(fw) {
		return nil, apperrors.Validation("期末成绩占比必须在0-1之间")
	}
	if !grading.WeightsBalanced(ow, fw) {
		sum := grading.WeightSum(ow, fw)
		return nil, apperrors.Validation("占比和必须为1，当前为%s", strconv.FormatFloat(sum, 'f', -1, 64))
	}
	if _, ok := actor.StudentID(); ok {
		return nil, apperrors.Permission("学生不能设置成绩占比")
	}

	resp := &dto.WeightsResponse{CourseID: courseID, OrdinaryWeight: ow, FinalWeight: fw}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		course, err := tx.Course.GetByIDForUpdate(ctx, courseID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NotFound("课程不存在")
			}
			return err
		}
		if !actor.canManageCourse(course) {
			return apperrors.Permission("无权修改该课程的成绩占比")
		}
		if err := tx.Course.Update(ctx, courseID, map[string]interface{}{
			"ordinary_weight": ow,
			"final_weight":    fw,
		}); err != nil {
			return err
		}

		// 占比只读一次，整门课按同一组占比重算
		enrollments, err := tx.Enrollment.ListByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		grades := make(map[int64]*float64, len(enrollments))
		for _, e := range enrollments {
			g := grading.FinalGrade(e.OrdinaryScore, e.FinalScore, ow, fw)
			if g != nil {
				resp.Recomputed++
			} else if e.FinalGrade == nil {
				continue
			}
			grades[e.ID] = g
		}
		return tx.Enrollment.SetFinalGrades(ctx, grades)
	})
	if err != nil {
		return nil, s.fail("设置成绩占比失败", courseID, err)
	}

	s.metrics.AddRecomputed(resp.Recomputed)
	s.logger.Info("课程占比已更新",
		zap.Int64("course_id", courseID),
		zap.Float64("ordinary_weight", ow),
		zap.Float64("final_weight", fw),
		zap.Int("recomputed", resp.Recomputed),
	)
	return resp, nil
}

// ────────────────────── SetLegacyGrade ──────────────────────

func (s *gradeService) SetLegacyGrade(ctx context.Context, actor Actor, enrollmentID int64, grade float64) error {
	if !grading.ScoreInRange(grade) {
		return apperrors.Validation("成绩必须在0-100之间")
	}
	if _, ok := actor.StudentID(); ok {
		return apperrors.Permission("学生不能修改成绩")
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		e, err := s.lockOwnedEnrollment(ctx, tx, actor, enrollmentID)
		if err != nil {
			return err
		}
		return tx.Enrollment.Update(ctx, e.ID, map[string]interface{}{
			"grade": grading.RoundGrade(grade),
		})
	})
	if err != nil {
		return s.fail("设置成绩失败", enrollmentID, err)
	}
	return nil
}

// fail 业务错误原样返回，其余记录日志后包装为内部错误
func (s *gradeService) fail(msg string, id int64, err error) error {
	if apperrors.KindOf(err) != apperrors.KindInternal {
		return err
	}
	s.logger.Error(msg, zap.Int64("id", id), zap.Error(err))
	return apperrors.Internal(err, msg)
}
