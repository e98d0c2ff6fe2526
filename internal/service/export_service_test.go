package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/config"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *memStore) {
	store := newMemStore()
	repo := store.repository()
	stats := NewStatisticsService(config.GradingConfig{}, repo, zap.NewNop())
	svc := NewExportService(repo, stats, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2024, 6, 30, 18, 5, 9, 0, time.Local) }
	return svc, store
}

// ── ExportCourse 测试 ──

func TestExportService_ExportCourse(t *testing.T) {
	svc, store := setupTestExportService()
	teacher := store.addTeacher("T001", "Zhang", "信息学院")
	c := store.addCourse("C001", "数据库/实验", &teacher.ID)
	s2 := store.addStudent("S002", "Li", "SE", 1)
	s1 := store.addStudent("S001", "Wang", "CS", 1)
	e1 := store.addEnrollment(s1.ID, c.ID)
	e1.FinalGrade = fptr(92)
	e2 := store.addEnrollment(s2.ID, c.ID)
	e2.Grade = fptr(58)

	buf, filename, err := svc.ExportCourse(context.Background(), SystemActor(), c.ID)
	if err != nil {
		t.Fatalf("ExportCourse 失败: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Fatal("导出内容不应为空")
	}
	if filename != "数据库-实验-Zhang-20240630-180509.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可解析: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != SheetCourseInfo || sheets[1] != SheetGradeList {
		t.Errorf("工作表不符: %v", sheets)
	}

	info, err := f.GetRows(SheetCourseInfo)
	if err != nil {
		t.Fatalf("读取课程信息失败: %v", err)
	}
	if len(info) != 2 || info[0][0] != "课程号" || info[1][0] != "C001" || info[1][4] != "Zhang" {
		t.Errorf("课程信息不符: %v", info)
	}
	if info[1][6] != "2" || info[1][8] != "50" {
		t.Errorf("选课人数或及格率不符: %v", info[1])
	}

	rows, err := f.GetRows(SheetGradeList)
	if err != nil {
		t.Fatalf("读取成绩名单失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行，实际 %d", len(rows))
	}
	if rows[1][0] != "S001" || rows[1][3] != "92" {
		t.Errorf("第一行应为 S001 总评 92: %v", rows[1])
	}
	if rows[2][0] != "S002" || rows[2][3] != "58" || rows[2][4] != "enrolled" {
		t.Errorf("无总评时应取旧版成绩: %v", rows[2])
	}
}

func TestExportService_ExportCourse_NotFound(t *testing.T) {
	svc, _ := setupTestExportService()

	buf, filename, err := svc.ExportCourse(context.Background(), SystemActor(), 9999)
	if err != nil {
		t.Fatalf("课程不存在不应返回错误: %v", err)
	}
	if buf != nil || filename != "" {
		t.Error("课程不存在应返回空内容")
	}
}

func TestExportService_ExportCourse_Permission(t *testing.T) {
	svc, store := setupTestExportService()
	owner := store.addTeacher("T001", "Zhang", "")
	other := store.addTeacher("T002", "Li", "")
	c := store.addCourse("C001", "DB", &owner.ID)

	if _, _, err := svc.ExportCourse(context.Background(), teacherActor(other.ID), c.ID); !errors.Is(err, apperrors.ErrPermission) {
		t.Errorf("非授课教师应返回 PermissionError，实际: %v", err)
	}
	buf, _, err := svc.ExportCourse(context.Background(), teacherActor(owner.ID), c.ID)
	if err != nil || buf == nil {
		t.Errorf("授课教师应可导出: %v", err)
	}
}

func TestExportService_Filename_NoTeacher(t *testing.T) {
	svc, store := setupTestExportService()
	c := store.addCourse("C001", "", nil)

	_, filename, err := svc.ExportCourse(context.Background(), SystemActor(), c.ID)
	if err != nil {
		t.Fatalf("ExportCourse 失败: %v", err)
	}
	want := fmt.Sprintf("课程%d-未指定教师-20240630-180509.xlsx", c.ID)
	if filename != want {
		t.Errorf("期望 %s，实际 %s", want, filename)
	}
}
