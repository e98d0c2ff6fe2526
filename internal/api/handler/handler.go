package handler

import "github.com/YuYe10/DB-EX3/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Import     *ImportHandler
	Student    *StudentHandler
	Grade      *GradeHandler
	Course     *CourseHandler
	Statistics *StatisticsHandler
	Export     *ExportHandler
	MajorPlan  *MajorPlanHandler
}

// NewHandler 创建 Handler 聚合；maxRows 为导入时每个工作表的行数上限
func NewHandler(svc *service.Service, maxRows int) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Import:     NewImportHandler(svc.Import, maxRows),
		Student:    NewStudentHandler(svc.Student, svc.Admission),
		Grade:      NewGradeHandler(svc.Grade),
		Course:     NewCourseHandler(svc.Course),
		Statistics: NewStatisticsHandler(svc.Statistics),
		Export:     NewExportHandler(svc.Export),
		MajorPlan:  NewMajorPlanHandler(svc.MajorPlan),
	}
}
