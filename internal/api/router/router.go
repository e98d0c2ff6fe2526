package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/config"
	"github.com/YuYe10/DB-EX3/internal/api/handler"
	"github.com/YuYe10/DB-EX3/internal/api/middleware"
	"github.com/YuYe10/DB-EX3/pkg/jwt"
	"github.com/YuYe10/DB-EX3/pkg/metrics"
	"github.com/YuYe10/DB-EX3/pkg/redis"
)

const (
	roleAdmin   = "admin"
	roleTeacher = "teacher"
	roleStudent = "student"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不限流，m 为 nil 时不暴露 /metrics
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.BodyLimit(cfg.Server.MaxUploadSize))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil && cfg.Server.MetricsEnable {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	heavy := middleware.RateLimit(rdb, cfg.Import.RateLimit, cfg.Import.RateWindow, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Auth.Login)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			authorized.GET("/auth/me", h.Auth.Me)

			// 导入
			imports := authorized.Group("/import")
			{
				imports.POST("/courses", middleware.RoleAuth(roleAdmin), heavy, h.Import.ImportCourses)
				imports.POST("/roster", middleware.RoleAuth(roleTeacher), heavy, h.Import.ImportRoster)
				imports.GET("/roster/template", middleware.RoleAuth(roleTeacher, roleAdmin), h.Import.RosterTemplate)
			}

			// 课程（教师只看到自己的课程，Service 层鉴权）
			courses := authorized.Group("/courses", middleware.RoleAuth(roleAdmin, roleTeacher))
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id/students", h.Course.CourseStudents)
				courses.PUT("/:id/weights", h.Grade.UpdateWeights)
				courses.GET("/:id/export", heavy, h.Export.ExportCourse)
			}

			// 成绩
			enrollments := authorized.Group("/enrollments", middleware.RoleAuth(roleAdmin, roleTeacher))
			{
				enrollments.PATCH("/:id/scores", h.Grade.UpdateScores)
				enrollments.PUT("/:id/grade", h.Grade.UpdateGrade)
			}

			// 统计
			authorized.GET("/statistics", middleware.RoleAuth(roleAdmin), h.Statistics.Statistics)

			// 学生自助
			student := authorized.Group("/student", middleware.RoleAuth(roleStudent))
			{
				student.GET("/courses", h.Student.AvailableCourses)
				student.GET("/semesters", h.Student.AvailableSemesters)
				student.GET("/enrollments", h.Student.Enrollments)
				student.POST("/enrollments", h.Student.Enroll)
				student.DELETE("/enrollments/:id", h.Student.Drop)
			}

			// 学期管理
			students := authorized.Group("/students", middleware.RoleAuth(roleAdmin))
			{
				students.PUT("/:id/semester", h.Student.UpdateSemester)
				students.POST("/advance-semester", h.Student.AdvanceSemesters)
			}

			// 培养方案
			plans := authorized.Group("/major-plans")
			{
				plans.GET("", h.MajorPlan.ListPlans)
				plans.GET("/:id", h.MajorPlan.GetPlan)
				plans.GET("/:id/courses", h.MajorPlan.ListCourses)
				plans.GET("/:id/semesters", h.MajorPlan.Semesters)
				plans.POST("", middleware.RoleAuth(roleAdmin), h.MajorPlan.CreatePlan)
				plans.PATCH("/:id", middleware.RoleAuth(roleAdmin), h.MajorPlan.UpdatePlan)
				plans.DELETE("/:id", middleware.RoleAuth(roleAdmin), h.MajorPlan.DeletePlan)
				plans.POST("/:id/courses", middleware.RoleAuth(roleAdmin), h.MajorPlan.AddCourse)
				plans.DELETE("/courses/:id", middleware.RoleAuth(roleAdmin), h.MajorPlan.RemoveCourse)
			}
		}
	}

	return r
}
