package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
	"github.com/YuYe10/DB-EX3/pkg/grading"
)

// 导出工作表
const (
	SheetCourseInfo = "课程信息"
	SheetGradeList  = "成绩名单"
)

var (
	courseInfoHeader = []string{"课程号", "课程名", "学分", "容量", "授课教师", "教师工号", "选课人数", "平均成绩", "及格率(%)", "优秀率(%)"}
	gradeListHeader  = []string{"学号", "姓名", "专业", "成绩", "状态"}
)

// ExportService 课程成绩导出接口
//
// 导出为只读操作：课程信息表 + 成绩名单表，名单按学号排序，成绩取总评（无总评时取单一成绩）。
// 课程不存在时返回 nil buffer 而非错误，由 Handler 决定响应状态。
type ExportService interface {
	// ExportCourse 管理员可导出任意课程，教师只能导出自己授课的课程
	ExportCourse(ctx context.Context, actor Actor, courseID int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	stats  StatisticsService
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, stats StatisticsService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, stats: stats, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportCourse: 导出单门课程成绩
// ═══════════════════════════════════════════════════════════
//
// 文件名：<课程名>-<授课教师>-<YYYYMMDD-HHMMSS>.xlsx

func (s *exportService) ExportCourse(ctx context.Context, actor Actor, courseID int64) (*bytes.Buffer, string, error) {
	// 1. 课程与权限
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", nil
		}
		s.logger.Error("查询课程失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	if !actor.canManageCourse(course) {
		return nil, "", apperrors.Permission("无权导出该课程成绩")
	}

	// 2. 名单与统计
	enrollments, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程名单失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	summary := s.stats.SummarizeEnrollments(enrollments)

	// 3. 生成 Excel
	buf, err := s.render(course, enrollments, summary)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, "", apperrors.Internal(err, "生成 Excel 文件失败")
	}
	return buf, s.filename(course), nil
}

func (s *exportService) render(course *model.Course, enrollments []model.Enrollment, summary grading.Summary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	// 课程信息
	idx, err := f.NewSheet(SheetCourseInfo)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SheetCourseInfo, courseInfoHeader, headerStyle); err != nil {
		return nil, err
	}
	var teacherNo, teacher string
	if course.Teacher != nil {
		teacher, teacherNo = course.Teacher.Name, course.Teacher.TeacherNo
	}
	info := []interface{}{
		course.CourseCode,
		course.Name,
		course.Credit,
		course.Capacity,
		teacher,
		teacherNo,
		summary.EnrolledCount,
		cellValue(summary.AvgGrade),
		cellValue(summary.PassRate),
		cellValue(summary.ExcellentRate),
	}
	if err := f.SetSheetRow(SheetCourseInfo, "A2", &info); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetCourseInfo, "A", "J", 14); err != nil {
		return nil, err
	}

	// 成绩名单
	if _, err := f.NewSheet(SheetGradeList); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SheetGradeList, gradeListHeader, headerStyle); err != nil {
		return nil, err
	}
	for i, e := range enrollments {
		var no, name, major string
		if e.Student != nil {
			no, name, major = e.Student.StudentNo, e.Student.Name, e.Student.Major
		}
		row := []interface{}{no, name, major, cellValue(grading.Effective(e.FinalGrade, e.Grade)), e.Status}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetGradeList, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(SheetGradeList, "A", "C", 16); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

// cellValue 空值写为空单元格
func cellValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func (s *exportService) filename(course *model.Course) string {
	name := course.Name
	if name == "" {
		name = fmt.Sprintf("课程%d", course.ID)
	}
	teacher := "未指定教师"
	if course.Teacher != nil && course.Teacher.Name != "" {
		teacher = course.Teacher.Name
	}
	filename := fmt.Sprintf("%s-%s-%s.xlsx", name, teacher, s.now().Format("20060102-150405"))
	return strings.ReplaceAll(filename, "/", "-")
}
