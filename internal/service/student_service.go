package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/config"
	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
)

// StudentService 学生侧的浏览、退课与学期管理
type StudentService interface {
	// AvailableCourses 按培养方案列出可选课程；专业没有培养方案时列出全部课程
	AvailableCourses(ctx context.Context, studentID int64, semester *int) ([]dto.AvailableCourseResponse, error)
	AvailableSemesters(ctx context.Context, studentID int64) ([]int, error)
	Enrollments(ctx context.Context, studentID int64) ([]dto.StudentEnrollmentResponse, error)
	Drop(ctx context.Context, studentID, enrollmentID int64) error
	UpdateSemester(ctx context.Context, studentID int64, semester int) error
	// AdvanceSemesters 将距上次推进超过配置间隔的学生学期加一，返回推进人数
	AdvanceSemesters(ctx context.Context) (int64, error)
}

type studentService struct {
	cfg    config.SemesterConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(cfg config.SemesterConfig, repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

func (s *studentService) maxSemester() int {
	if s.cfg.Max <= 0 {
		return 8
	}
	return s.cfg.Max
}

func (s *studentService) checkSemester(semester int) error {
	if semester < 1 || semester > s.maxSemester() {
		return apperrors.Validation("学期必须在1-%d之间", s.maxSemester())
	}
	return nil
}

// ────────────────────── 可选课程 ──────────────────────

func (s *studentService) AvailableCourses(ctx context.Context, studentID int64, semester *int) ([]dto.AvailableCourseResponse, error) {
	if semester != nil {
		if err := s.checkSemester(*semester); err != nil {
			return nil, err
		}
	}

	result := []dto.AvailableCourseResponse{}
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return result, nil
		}
		s.logger.Error("查询学生失败", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if student.Major == "" {
		return result, nil
	}

	plan, err := s.repo.MajorPlan.GetByMajor(ctx, student.Major)
	switch {
	case err == nil:
		items, err := s.repo.MajorPlan.ListCourses(ctx, plan.ID, semester)
		if err != nil {
			s.logger.Error("查询培养方案课程失败", zap.Int64("plan_id", plan.ID), zap.Error(err))
			return nil, err
		}
		for _, item := range items {
			if item.Course == nil {
				continue
			}
			sem, required := item.Semester, item.IsRequired
			entry := toAvailableCourse(item.Course)
			entry.Semester = &sem
			entry.IsRequired = &required
			result = append(result, entry)
		}
	case repository.IsNotFound(err):
		// 没有培养方案时不做筛选，仅供浏览；选课仍需通过准入校验
		courses, err := s.repo.Course.List(ctx, repository.CourseFilter{})
		if err != nil {
			s.logger.Error("查询课程失败", zap.Error(err))
			return nil, err
		}
		for i := range courses {
			result = append(result, toAvailableCourse(&courses[i]))
		}
	default:
		s.logger.Error("查询培养方案失败", zap.String("major", student.Major), zap.Error(err))
		return nil, err
	}

	if len(result) == 0 {
		return result, nil
	}
	if err := s.fillEnrollmentState(ctx, studentID, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *studentService) fillEnrollmentState(ctx context.Context, studentID int64, list []dto.AvailableCourseResponse) error {
	ids := make([]int64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.CourseID)
	}
	counts, err := s.repo.Enrollment.CountByCourse(ctx, ids)
	if err != nil {
		s.logger.Error("统计选课人数失败", zap.Error(err))
		return err
	}
	mine, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生选课失败", zap.Int64("student_id", studentID), zap.Error(err))
		return err
	}
	enrolled := make(map[int64]bool, len(mine))
	for _, e := range mine {
		enrolled[e.CourseID] = true
	}
	for i := range list {
		list[i].EnrolledCount = counts[list[i].CourseID]
		list[i].AlreadyEnrolled = enrolled[list[i].CourseID]
	}
	return nil
}

func toAvailableCourse(c *model.Course) dto.AvailableCourseResponse {
	return dto.AvailableCourseResponse{
		CourseID:    c.ID,
		CourseCode:  c.CourseCode,
		Name:        c.Name,
		Credit:      c.Credit,
		Capacity:    c.Capacity,
		TeacherName: teacherName(c.Teacher),
	}
}

func teacherName(t *model.Teacher) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// ────────────────────── 可选学期 ──────────────────────

func (s *studentService) AvailableSemesters(ctx context.Context, studentID int64) ([]int, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return []int{}, nil
		}
		return nil, err
	}
	if student.Major == "" {
		return []int{}, nil
	}
	plan, err := s.repo.MajorPlan.GetByMajor(ctx, student.Major)
	if err != nil {
		if repository.IsNotFound(err) {
			return []int{}, nil
		}
		return nil, err
	}
	semesters, err := s.repo.MajorPlan.Semesters(ctx, plan.ID)
	if err != nil {
		s.logger.Error("查询方案学期失败", zap.Int64("plan_id", plan.ID), zap.Error(err))
		return nil, err
	}
	if semesters == nil {
		semesters = []int{}
	}
	return semesters, nil
}

// ────────────────────── 我的选课 ──────────────────────

func (s *studentService) Enrollments(ctx context.Context, studentID int64) ([]dto.StudentEnrollmentResponse, error) {
	list, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生选课失败", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.StudentEnrollmentResponse, 0, len(list))
	for _, e := range list {
		item := dto.StudentEnrollmentResponse{
			EnrollmentID:  e.ID,
			CourseID:      e.CourseID,
			Status:        e.Status,
			Grade:         e.Grade,
			OrdinaryScore: e.OrdinaryScore,
			FinalScore:    e.FinalScore,
			FinalGrade:    e.FinalGrade,
		}
		if e.Course != nil {
			item.CourseCode = e.Course.CourseCode
			item.CourseName = e.Course.Name
			item.Credit = e.Course.Credit
			item.TeacherName = teacherName(e.Course.Teacher)
		}
		result = append(result, item)
	}
	return result, nil
}

// ────────────────────── 退课 ──────────────────────

func (s *studentService) Drop(ctx context.Context, studentID, enrollmentID int64) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		e, err := tx.Enrollment.GetByID(ctx, enrollmentID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NotFound("选课记录不存在")
			}
			return err
		}
		if e.StudentID != studentID {
			return apperrors.Permission("只能退选自己的课程")
		}
		if err := tx.Enrollment.Delete(ctx, enrollmentID); err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NotFound("选课记录不存在")
			}
			return err
		}
		s.logger.Info("学生退课", zap.Int64("student_id", studentID), zap.Int64("enrollment_id", enrollmentID))
		return nil
	})
}

// ────────────────────── 学期 ──────────────────────

func (s *studentService) UpdateSemester(ctx context.Context, studentID int64, semester int) error {
	if err := s.checkSemester(semester); err != nil {
		return err
	}
	if err := s.repo.Student.UpdateSemester(ctx, studentID, semester, s.now()); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NotFound("学生不存在")
		}
		s.logger.Error("更新学期失败", zap.Int64("student_id", studentID), zap.Error(err))
		return err
	}
	return nil
}

func (s *studentService) AdvanceSemesters(ctx context.Context) (int64, error) {
	months := s.cfg.AdvanceMonths
	if months <= 0 {
		months = 6
	}
	now := s.now()
	n, err := s.repo.Student.AdvanceSemesters(ctx, now.AddDate(0, -months, 0), s.maxSemester(), now)
	if err != nil {
		s.logger.Error("推进学期失败", zap.Error(err))
		return 0, err
	}
	s.logger.Info("推进学期完成", zap.Int64("advanced", n))
	return n, nil
}
