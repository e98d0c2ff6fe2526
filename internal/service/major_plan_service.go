package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/config"
	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
	"github.com/YuYe10/DB-EX3/pkg/patch"
)

// MajorPlanService 培养方案管理接口
type MajorPlanService interface {
	Create(ctx context.Context, req *dto.CreateMajorPlanRequest) (*dto.MajorPlanResponse, error)
	List(ctx context.Context) ([]dto.MajorPlanResponse, error)
	Get(ctx context.Context, id int64) (*dto.MajorPlanDetailResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateMajorPlanRequest) (*dto.MajorPlanResponse, error)
	// Delete 删除方案，方案课程级联删除
	Delete(ctx context.Context, id int64) error

	AddCourse(ctx context.Context, planID int64, req *dto.AddPlanCourseRequest) (*dto.PlanCourseResponse, error)
	RemoveCourse(ctx context.Context, planCourseID int64) error
	Courses(ctx context.Context, planID int64, semester *int) ([]dto.PlanCourseResponse, error)
	Semesters(ctx context.Context, planID int64) ([]int, error)
}

type majorPlanService struct {
	cfg      config.SemesterConfig
	repo     *repository.Repository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewMajorPlanService 创建 MajorPlanService 实例
func NewMajorPlanService(cfg config.SemesterConfig, repo *repository.Repository, logger *zap.Logger) MajorPlanService {
	if cfg.Max <= 0 {
		cfg.Max = 8
	}
	return &majorPlanService{cfg: cfg, repo: repo, validate: validator.New(), logger: logger}
}

// check 结构体校验失败时返回第一个字段的错误
func (s *majorPlanService) check(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return apperrors.Validation("字段 %s 校验失败: %s", toSnake(fe.Field()), fe.Tag())
	}
	return apperrors.Validation("请求参数错误")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ────────────────────── 方案 ──────────────────────

func (s *majorPlanService) Create(ctx context.Context, req *dto.CreateMajorPlanRequest) (*dto.MajorPlanResponse, error) {
	req.MajorName = strings.TrimSpace(req.MajorName)
	if err := s.check(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.MajorPlan.GetByMajor(ctx, req.MajorName); err == nil {
		return nil, apperrors.Conflict("专业 %s 的培养方案已存在", req.MajorName)
	} else if !repository.IsNotFound(err) {
		s.logger.Error("查询培养方案失败", zap.Error(err))
		return nil, err
	}

	plan := &model.MajorPlan{MajorName: req.MajorName, Description: req.Description}
	if err := s.repo.MajorPlan.Create(ctx, plan); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("专业 %s 的培养方案已存在", req.MajorName)
		}
		s.logger.Error("创建培养方案失败", zap.Error(err))
		return nil, err
	}
	return toPlanResponse(plan), nil
}

func (s *majorPlanService) List(ctx context.Context) ([]dto.MajorPlanResponse, error) {
	plans, err := s.repo.MajorPlan.List(ctx)
	if err != nil {
		s.logger.Error("列出培养方案失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.MajorPlanResponse, 0, len(plans))
	for i := range plans {
		result = append(result, *toPlanResponse(&plans[i]))
	}
	return result, nil
}

func (s *majorPlanService) Get(ctx context.Context, id int64) (*dto.MajorPlanDetailResponse, error) {
	plan, err := s.getPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	courses, err := s.Courses(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return &dto.MajorPlanDetailResponse{MajorPlanResponse: *toPlanResponse(plan), Courses: courses}, nil
}

func (s *majorPlanService) Update(ctx context.Context, id int64, req *dto.UpdateMajorPlanRequest) (*dto.MajorPlanResponse, error) {
	if req.MajorName.Set {
		if !req.MajorName.Present() || strings.TrimSpace(*req.MajorName.Value) == "" {
			return nil, apperrors.Validation("专业名称不能为空")
		}
		name := strings.TrimSpace(*req.MajorName.Value)
		if len([]rune(name)) > 128 {
			return nil, apperrors.Validation("专业名称过长")
		}
		req.MajorName = patch.Value(name)
	}
	if req.Description.Set && !req.Description.Present() {
		req.Description = patch.Value("")
	}

	var plan *model.MajorPlan
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		columns := patch.Columns(
			patch.Of("major_name", req.MajorName),
			patch.Of("description", req.Description),
		)
		if err := tx.MajorPlan.Update(ctx, id, columns); err != nil {
			switch {
			case repository.IsNotFound(err):
				return apperrors.NotFound("培养方案不存在")
			case repository.IsUniqueViolation(err):
				return apperrors.Conflict("该专业的培养方案已存在")
			}
			return err
		}
		p, err := tx.MajorPlan.GetByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NotFound("培养方案不存在")
			}
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.logger.Error("更新培养方案失败", zap.Int64("plan_id", id), zap.Error(err))
		}
		return nil, err
	}
	return toPlanResponse(plan), nil
}

func (s *majorPlanService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.MajorPlan.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NotFound("培养方案不存在")
		}
		s.logger.Error("删除培养方案失败", zap.Int64("plan_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *majorPlanService) getPlan(ctx context.Context, id int64) (*model.MajorPlan, error) {
	plan, err := s.repo.MajorPlan.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("培养方案不存在")
		}
		s.logger.Error("查询培养方案失败", zap.Int64("plan_id", id), zap.Error(err))
		return nil, err
	}
	return plan, nil
}

func toPlanResponse(p *model.MajorPlan) *dto.MajorPlanResponse {
	return &dto.MajorPlanResponse{ID: p.ID, MajorName: p.MajorName, Description: p.Description}
}

// ────────────────────── 方案课程 ──────────────────────

func (s *majorPlanService) AddCourse(ctx context.Context, planID int64, req *dto.AddPlanCourseRequest) (*dto.PlanCourseResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if req.Semester > s.cfg.Max {
		return nil, apperrors.Validation("学期必须在1-%d之间", s.cfg.Max)
	}
	required := true
	if req.IsRequired != nil {
		required = *req.IsRequired
	}

	var resp *dto.PlanCourseResponse
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.MajorPlan.GetByID(ctx, planID); err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NotFound("培养方案不存在")
			}
			return err
		}
		course, err := tx.Course.GetByID(ctx, req.CourseID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.Referential("课程 %d 不存在", req.CourseID)
			}
			return err
		}

		duplicate := apperrors.Conflict("课程 %s 已在第%d学期的培养方案中", course.CourseCode, req.Semester)
		if _, err := tx.MajorPlan.GetCourse(ctx, planID, req.CourseID, req.Semester); err == nil {
			return duplicate
		} else if !repository.IsNotFound(err) {
			return err
		}

		pc := &model.MajorPlanCourse{
			PlanID:     planID,
			CourseID:   req.CourseID,
			Semester:   req.Semester,
			IsRequired: required,
		}
		err = tx.Transaction(ctx, func(inner *repository.Repository) error {
			return inner.MajorPlan.AddCourse(ctx, pc)
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return duplicate
			}
			return err
		}
		pc.Course = course
		item := toPlanCourse(pc)
		resp = &item
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.logger.Error("添加方案课程失败", zap.Int64("plan_id", planID), zap.Error(err))
		}
		return nil, err
	}
	return resp, nil
}

func (s *majorPlanService) RemoveCourse(ctx context.Context, planCourseID int64) error {
	if err := s.repo.MajorPlan.RemoveCourse(ctx, planCourseID); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NotFound("方案课程不存在")
		}
		s.logger.Error("移除方案课程失败", zap.Int64("id", planCourseID), zap.Error(err))
		return err
	}
	return nil
}

func (s *majorPlanService) Courses(ctx context.Context, planID int64, semester *int) ([]dto.PlanCourseResponse, error) {
	if semester != nil && (*semester < 1 || *semester > s.cfg.Max) {
		return nil, apperrors.Validation("学期必须在1-%d之间", s.cfg.Max)
	}
	items, err := s.repo.MajorPlan.ListCourses(ctx, planID, semester)
	if err != nil {
		s.logger.Error("查询方案课程失败", zap.Int64("plan_id", planID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.PlanCourseResponse, 0, len(items))
	for i := range items {
		result = append(result, toPlanCourse(&items[i]))
	}
	return result, nil
}

func (s *majorPlanService) Semesters(ctx context.Context, planID int64) ([]int, error) {
	if _, err := s.getPlan(ctx, planID); err != nil {
		return nil, err
	}
	semesters, err := s.repo.MajorPlan.Semesters(ctx, planID)
	if err != nil {
		s.logger.Error("查询方案学期失败", zap.Int64("plan_id", planID), zap.Error(err))
		return nil, err
	}
	if semesters == nil {
		semesters = []int{}
	}
	return semesters, nil
}

func toPlanCourse(pc *model.MajorPlanCourse) dto.PlanCourseResponse {
	item := dto.PlanCourseResponse{
		ID:         pc.ID,
		CourseID:   pc.CourseID,
		Semester:   pc.Semester,
		IsRequired: pc.IsRequired,
	}
	if pc.Course != nil {
		item.CourseCode = pc.Course.CourseCode
		item.CourseName = pc.Course.Name
		item.Credit = pc.Course.Credit
		item.TeacherName = teacherName(pc.Course.Teacher)
	}
	return item
}
