package dto

import "github.com/YuYe10/DB-EX3/pkg/patch"

// ── 培养方案 DTO ──

// CreateMajorPlanRequest 创建培养方案
type CreateMajorPlanRequest struct {
	MajorName   string `json:"major_name"  validate:"required,max=128"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateMajorPlanRequest 更新培养方案，字段缺省表示不修改
type UpdateMajorPlanRequest struct {
	MajorName   patch.Field[string] `json:"major_name"`
	Description patch.Field[string] `json:"description"`
}

// AddPlanCourseRequest 向培养方案添加课程
type AddPlanCourseRequest struct {
	CourseID   int64 `json:"course_id"   validate:"required,gt=0"`
	Semester   int   `json:"semester"    validate:"required,min=1"`
	IsRequired *bool `json:"is_required"`
}

// MajorPlanResponse 培养方案
type MajorPlanResponse struct {
	ID          int64  `json:"id"`
	MajorName   string `json:"major_name"`
	Description string `json:"description"`
}

// PlanCourseResponse 培养方案中的一门课程
type PlanCourseResponse struct {
	ID          int64   `json:"id"`
	CourseID    int64   `json:"course_id"`
	CourseCode  string  `json:"course_code"`
	CourseName  string  `json:"course_name"`
	Credit      float64 `json:"credit"`
	TeacherName string  `json:"teacher_name"`
	Semester    int     `json:"semester"`
	IsRequired  bool    `json:"is_required"`
}

// MajorPlanDetailResponse 培养方案详情
type MajorPlanDetailResponse struct {
	MajorPlanResponse
	Courses []PlanCourseResponse `json:"courses"`
}
