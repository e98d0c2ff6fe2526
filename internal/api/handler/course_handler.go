package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
)

// CourseHandler 课程查询 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 课程列表
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	list, err := h.courseSvc.Courses(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// CourseStudents 课程名单
// GET /api/v1/courses/:id/students
func (h *CourseHandler) CourseStudents(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	courseID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := h.courseSvc.CourseStudents(c.Request.Context(), actor, courseID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// StatisticsHandler 课程统计 HTTP 处理器
type StatisticsHandler struct {
	statsSvc service.StatisticsService
}

// NewStatisticsHandler 创建 StatisticsHandler
func NewStatisticsHandler(statsSvc service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsSvc: statsSvc}
}

// Statistics 全局统计并回写各课程比率
// GET /api/v1/statistics?course_code=&course_name=
func (h *StatisticsHandler) Statistics(c *gin.Context) {
	var filter dto.StatisticsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.statsSvc.Compute(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}
