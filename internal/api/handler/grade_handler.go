package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
)

// GradeHandler 成绩录入 HTTP 处理器
type GradeHandler struct {
	gradeSvc service.GradeService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc}
}

// UpdateScores 录入平时/期末成绩
// PATCH /api/v1/enrollments/:id/scores
func (h *GradeHandler) UpdateScores(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	enrollmentID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.gradeSvc.ApplyScores(c.Request.Context(), actor, enrollmentID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateGrade 直接设置成绩
// PUT /api/v1/enrollments/:id/grade
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	enrollmentID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if err := h.gradeSvc.SetLegacyGrade(c.Request.Context(), actor, enrollmentID, *req.Grade); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// UpdateWeights 设置课程成绩占比并重算总评
// PUT /api/v1/courses/:id/weights
func (h *GradeHandler) UpdateWeights(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	courseID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.gradeSvc.SetCourseWeights(c.Request.Context(), actor, courseID, *req.OrdinaryWeight, *req.FinalWeight)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}
