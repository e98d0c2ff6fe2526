package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
)

// MajorPlanHandler 培养方案 HTTP 处理器
type MajorPlanHandler struct {
	planSvc service.MajorPlanService
}

// NewMajorPlanHandler 创建 MajorPlanHandler
func NewMajorPlanHandler(planSvc service.MajorPlanService) *MajorPlanHandler {
	return &MajorPlanHandler{planSvc: planSvc}
}

// ListPlans GET /api/v1/major-plans
func (h *MajorPlanHandler) ListPlans(c *gin.Context) {
	list, err := h.planSvc.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// GetPlan GET /api/v1/major-plans/:id
func (h *MajorPlanHandler) GetPlan(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.planSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, plan)
}

// CreatePlan POST /api/v1/major-plans
func (h *MajorPlanHandler) CreatePlan(c *gin.Context) {
	var req dto.CreateMajorPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	plan, err := h.planSvc.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, plan)
}

// UpdatePlan PATCH /api/v1/major-plans/:id
func (h *MajorPlanHandler) UpdatePlan(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateMajorPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	plan, err := h.planSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, plan)
}

// DeletePlan DELETE /api/v1/major-plans/:id
func (h *MajorPlanHandler) DeletePlan(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.planSvc.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListCourses GET /api/v1/major-plans/:id/courses?semester=
func (h *MajorPlanHandler) ListCourses(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	semester, ok := optionalIntQuery(c, "semester")
	if !ok {
		return
	}
	list, err := h.planSvc.Courses(c.Request.Context(), id, semester)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// AddCourse POST /api/v1/major-plans/:id/courses
func (h *MajorPlanHandler) AddCourse(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AddPlanCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	item, err := h.planSvc.AddCourse(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, item)
}

// RemoveCourse DELETE /api/v1/major-plans/courses/:id
func (h *MajorPlanHandler) RemoveCourse(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.planSvc.RemoveCourse(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// Semesters GET /api/v1/major-plans/:id/semesters
func (h *MajorPlanHandler) Semesters(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := h.planSvc.Semesters(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}
