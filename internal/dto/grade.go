package dto

import "github.com/YuYe10/DB-EX3/pkg/patch"

// ── 成绩模块 DTO ──

// UpdateScoresRequest 录入平时/期末成绩
// 字段缺省表示不修改，显式 null 表示清空
type UpdateScoresRequest struct {
	OrdinaryScore patch.Field[float64] `json:"ordinary_score"`
	FinalScore    patch.Field[float64] `json:"final_score"`
}

// UpdateGradeRequest 直接设置成绩（旧接口）
type UpdateGradeRequest struct {
	Grade *float64 `json:"grade" binding:"required"`
}

// UpdateWeightsRequest 设置课程成绩占比
type UpdateWeightsRequest struct {
	OrdinaryWeight *float64 `json:"ordinary_weight" binding:"required"`
	FinalWeight    *float64 `json:"final_weight"    binding:"required"`
}

// EnrollmentGradeResponse 单条选课的成绩
type EnrollmentGradeResponse struct {
	EnrollmentID  int64    `json:"enrollment_id"`
	StudentID     int64    `json:"student_id"`
	CourseID      int64    `json:"course_id"`
	Grade         *float64 `json:"grade"`
	OrdinaryScore *float64 `json:"ordinary_score"`
	FinalScore    *float64 `json:"final_score"`
	FinalGrade    *float64 `json:"final_grade"`
}

// WeightsResponse 设置占比后的结果
type WeightsResponse struct {
	CourseID       int64   `json:"course_id"`
	OrdinaryWeight float64 `json:"ordinary_weight"`
	FinalWeight    float64 `json:"final_weight"`
	Recomputed     int     `json:"recomputed"`
}
