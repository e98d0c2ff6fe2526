package service

import (
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/config"
	"github.com/YuYe10/DB-EX3/internal/repository"
	"github.com/YuYe10/DB-EX3/pkg/jwt"
	"github.com/YuYe10/DB-EX3/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Import     ImportService
	Admission  AdmissionService
	Student    StudentService
	Grade      GradeService
	Course     CourseService
	Statistics StatisticsService
	Export     ExportService
	MajorPlan  MajorPlanService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	resolver := NewEntityResolver(cfg.Auth.BcryptCost, logger)
	stats := NewStatisticsService(cfg.Grading, repo, logger)
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, logger),
		Import:     NewImportService(repo, resolver, m, logger),
		Admission:  NewAdmissionService(repo, resolver, m, logger),
		Student:    NewStudentService(cfg.Semester, repo, logger),
		Grade:      NewGradeService(repo, m, logger),
		Course:     NewCourseService(repo, logger),
		Statistics: stats,
		Export:     NewExportService(repo, stats, logger),
		MajorPlan:  NewMajorPlanService(cfg.Semester, repo, logger),
	}
}
