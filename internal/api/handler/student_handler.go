package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
)

// StudentHandler 学生选课与学期 HTTP 处理器
type StudentHandler struct {
	studentSvc   service.StudentService
	admissionSvc service.AdmissionService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, admissionSvc service.AdmissionService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, admissionSvc: admissionSvc}
}

// AvailableCourses 可选课程
// GET /api/v1/student/courses?semester=3
func (h *StudentHandler) AvailableCourses(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	semester, ok := optionalIntQuery(c, "semester")
	if !ok {
		return
	}
	list, err := h.studentSvc.AvailableCourses(c.Request.Context(), studentID, semester)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// AvailableSemesters 培养方案中有课程的学期
// GET /api/v1/student/semesters
func (h *StudentHandler) AvailableSemesters(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	list, err := h.studentSvc.AvailableSemesters(c.Request.Context(), studentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Enrollments 我的选课
// GET /api/v1/student/enrollments
func (h *StudentHandler) Enrollments(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	list, err := h.studentSvc.Enrollments(c.Request.Context(), studentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Enroll 选课
// POST /api/v1/student/enrollments
func (h *StudentHandler) Enroll(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	id, err := h.admissionSvc.Admit(c.Request.Context(), studentID, req.CourseID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, dto.EnrollResponse{EnrollmentID: id})
}

// Drop 退课
// DELETE /api/v1/student/enrollments/:id
func (h *StudentHandler) Drop(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	enrollmentID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.studentSvc.Drop(c.Request.Context(), studentID, enrollmentID); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// UpdateSemester 设置学生当前学期（管理员）
// PUT /api/v1/students/:id/semester
func (h *StudentHandler) UpdateSemester(c *gin.Context) {
	studentID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if err := h.studentSvc.UpdateSemester(c.Request.Context(), studentID, req.Semester); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// AdvanceSemesters 批量推进学期（管理员）
// POST /api/v1/students/advance-semester
func (h *StudentHandler) AdvanceSemesters(c *gin.Context) {
	n, err := h.studentSvc.AdvanceSemesters(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.AdvanceSemesterResponse{Advanced: n})
}
