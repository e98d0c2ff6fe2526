package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
)

// CourseService 课程与课程名单查询
type CourseService interface {
	// Courses 管理员看到全部课程，教师只看到自己授课的课程
	Courses(ctx context.Context, actor Actor) ([]dto.CourseResponse, error)
	// CourseStudents 课程名单，按学号排序
	CourseStudents(ctx context.Context, actor Actor, courseID int64) ([]dto.CourseStudentResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Courses(ctx context.Context, actor Actor) ([]dto.CourseResponse, error) {
	filter := repository.CourseFilter{}
	if !actor.IsAdmin() {
		tid, ok := actor.TeacherID()
		if !ok {
			return nil, apperrors.Permission("无权查看课程列表")
		}
		filter.TeacherID = &tid
	}

	courses, err := s.repo.Course.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	counts, err := s.repo.Enrollment.CountByCourse(ctx, ids)
	if err != nil {
		s.logger.Error("统计选课人数失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		c := &courses[i]
		result = append(result, dto.CourseResponse{
			ID:             c.ID,
			CourseCode:     c.CourseCode,
			Name:           c.Name,
			Credit:         c.Credit,
			Capacity:       c.Capacity,
			TeacherID:      c.TeacherID,
			TeacherName:    teacherName(c.Teacher),
			OrdinaryWeight: c.OrdinaryWeight,
			FinalWeight:    c.FinalWeight,
			PassRate:       c.PassRate,
			ExcellentRate:  c.ExcellentRate,
			EnrolledCount:  counts[c.ID],
		})
	}
	return result, nil
}

func (s *courseService) CourseStudents(ctx context.Context, actor Actor, courseID int64) ([]dto.CourseStudentResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("课程不存在")
		}
		s.logger.Error("查询课程失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if !actor.canManageCourse(course) {
		return nil, apperrors.Permission("无权查看该课程名单")
	}

	list, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程名单失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.CourseStudentResponse, 0, len(list))
	for _, e := range list {
		result = append(result, toCourseStudent(e))
	}
	return result, nil
}

func toCourseStudent(e model.Enrollment) dto.CourseStudentResponse {
	item := dto.CourseStudentResponse{
		EnrollmentID:  e.ID,
		StudentID:     e.StudentID,
		Status:        e.Status,
		Grade:         e.Grade,
		OrdinaryScore: e.OrdinaryScore,
		FinalScore:    e.FinalScore,
		FinalGrade:    e.FinalGrade,
	}
	if e.Student != nil {
		item.StudentNo = e.Student.StudentNo
		item.Name = e.Student.Name
		item.Major = e.Student.Major
	}
	return item
}
