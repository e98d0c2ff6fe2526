package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
)

// Outcome 解析实体的结果
type Outcome int

const (
	OutcomeExisting Outcome = iota
	OutcomeCreated
	OutcomeEnriched // 已存在的教师补全了院系
)

// StudentSeed 按学号解析/创建学生所需信息
type StudentSeed struct {
	StudentNo string
	Name      string
	Major     string
}

// TeacherSeed 按工号解析/创建教师所需信息
type TeacherSeed struct {
	TeacherNo  string
	Name       string
	Department string
}

// EntityResolver 按自然键（学号/工号/课程号）查找或创建实体。
//
// 所有方法都接收调用方的 Repository，写入落在调用方的事务里。
// 创建与唯一约束竞争失败时重新查询一次：查到则视为已存在，否则返回 Conflict。
type EntityResolver interface {
	ResolveOrCreateStudent(ctx context.Context, repo *repository.Repository, seed StudentSeed) (int64, Outcome, error)
	ResolveOrCreateTeacher(ctx context.Context, repo *repository.Repository, seed TeacherSeed) (int64, Outcome, error)
	// EnrichTeacher 院系为空时补全，返回是否更新
	EnrichTeacher(ctx context.Context, repo *repository.Repository, teacherID int64, department string) (bool, error)
	ResolveCourse(ctx context.Context, repo *repository.Repository, code string) (*model.Course, error)
	CreateCourse(ctx context.Context, repo *repository.Repository, course *model.Course) (int64, Outcome, error)
	// EnsureEnrollment 插入选课，(student, course) 已存在时返回已有记录 ID 与 OutcomeExisting
	EnsureEnrollment(ctx context.Context, repo *repository.Repository, e *model.Enrollment) (int64, Outcome, error)
}

type entityResolver struct {
	bcryptCost int
	logger     *zap.Logger
}

// NewEntityResolver 创建 EntityResolver；bcryptCost 用于新开通账号的初始密码
func NewEntityResolver(bcryptCost int, logger *zap.Logger) EntityResolver {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &entityResolver{bcryptCost: bcryptCost, logger: logger}
}

// ────────────────────── 学生 ──────────────────────

func (r *entityResolver) ResolveOrCreateStudent(ctx context.Context, repo *repository.Repository, seed StudentSeed) (int64, Outcome, error) {
	if st, err := repo.Student.GetByNo(ctx, seed.StudentNo); err == nil {
		return st.ID, OutcomeExisting, nil
	} else if !repository.IsNotFound(err) {
		return 0, OutcomeExisting, err
	}

	name := seed.Name
	if name == "" {
		name = seed.StudentNo
	}
	st := &model.Student{StudentNo: seed.StudentNo, Name: name, Major: seed.Major, CurrentSemester: 1}

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Student.Create(ctx, st); err != nil {
			return err
		}
		return r.openAccount(ctx, tx, seed.StudentNo, "s"+seed.StudentNo, model.RoleStudent, st.ID)
	})
	if err == nil {
		r.logger.Debug("创建学生", zap.String("student_no", seed.StudentNo), zap.Int64("id", st.ID))
		return st.ID, OutcomeCreated, nil
	}
	if !repository.IsUniqueViolation(err) {
		return 0, OutcomeExisting, err
	}

	// 并发插入：以先提交者为准
	winner, gerr := repo.Student.GetByNo(ctx, seed.StudentNo)
	if gerr == nil {
		return winner.ID, OutcomeExisting, nil
	}
	if repository.IsNotFound(gerr) {
		return 0, OutcomeExisting, apperrors.Conflict("账号 %s 已被占用", seed.StudentNo)
	}
	return 0, OutcomeExisting, gerr
}

// ────────────────────── 教师 ──────────────────────

func (r *entityResolver) ResolveOrCreateTeacher(ctx context.Context, repo *repository.Repository, seed TeacherSeed) (int64, Outcome, error) {
	t, err := repo.Teacher.GetByNo(ctx, seed.TeacherNo)
	if err == nil {
		if t.Department == "" && seed.Department != "" {
			updated, err := r.EnrichTeacher(ctx, repo, t.ID, seed.Department)
			if err != nil {
				return 0, OutcomeExisting, err
			}
			if updated {
				return t.ID, OutcomeEnriched, nil
			}
		}
		return t.ID, OutcomeExisting, nil
	}
	if !repository.IsNotFound(err) {
		return 0, OutcomeExisting, err
	}

	name := seed.Name
	if name == "" {
		name = seed.TeacherNo
	}
	t = &model.Teacher{TeacherNo: seed.TeacherNo, Name: name, Department: seed.Department}

	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Teacher.Create(ctx, t); err != nil {
			return err
		}
		return r.openAccount(ctx, tx, seed.TeacherNo, "t"+seed.TeacherNo, model.RoleTeacher, t.ID)
	})
	if err == nil {
		r.logger.Debug("创建教师", zap.String("teacher_no", seed.TeacherNo), zap.Int64("id", t.ID))
		return t.ID, OutcomeCreated, nil
	}
	if !repository.IsUniqueViolation(err) {
		return 0, OutcomeExisting, err
	}

	winner, gerr := repo.Teacher.GetByNo(ctx, seed.TeacherNo)
	if gerr == nil {
		return winner.ID, OutcomeExisting, nil
	}
	if repository.IsNotFound(gerr) {
		return 0, OutcomeExisting, apperrors.Conflict("账号 %s 已被占用", seed.TeacherNo)
	}
	return 0, OutcomeExisting, gerr
}

func (r *entityResolver) EnrichTeacher(ctx context.Context, repo *repository.Repository, teacherID int64, department string) (bool, error) {
	if department == "" {
		return false, nil
	}
	return repo.Teacher.BackfillDepartment(ctx, teacherID, department)
}

// ────────────────────── 课程 ──────────────────────

func (r *entityResolver) ResolveCourse(ctx context.Context, repo *repository.Repository, code string) (*model.Course, error) {
	course, err := repo.Course.GetByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("课程 %s 不存在", code)
		}
		return nil, err
	}
	return course, nil
}

func (r *entityResolver) CreateCourse(ctx context.Context, repo *repository.Repository, course *model.Course) (int64, Outcome, error) {
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Course.Create(ctx, course)
	})
	if err == nil {
		return course.ID, OutcomeCreated, nil
	}
	if !repository.IsUniqueViolation(err) {
		return 0, OutcomeExisting, err
	}
	winner, gerr := repo.Course.GetByCode(ctx, course.CourseCode)
	if gerr != nil {
		if repository.IsNotFound(gerr) {
			return 0, OutcomeExisting, apperrors.Conflict("课程号 %s 冲突", course.CourseCode)
		}
		return 0, OutcomeExisting, gerr
	}
	return winner.ID, OutcomeExisting, nil
}

// ────────────────────── 选课 ──────────────────────

func (r *entityResolver) EnsureEnrollment(ctx context.Context, repo *repository.Repository, e *model.Enrollment) (int64, Outcome, error) {
	if e.Status == "" {
		e.Status = model.EnrollmentStatusEnrolled
	}
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Enrollment.Create(ctx, e)
	})
	if err == nil {
		return e.ID, OutcomeCreated, nil
	}
	if !repository.IsUniqueViolation(err) {
		return 0, OutcomeExisting, err
	}
	winner, gerr := repo.Enrollment.GetByPair(ctx, e.StudentID, e.CourseID)
	if gerr != nil {
		if repository.IsNotFound(gerr) {
			return 0, OutcomeExisting, apperrors.Conflict("选课记录冲突")
		}
		return 0, OutcomeExisting, gerr
	}
	return winner.ID, OutcomeExisting, nil
}

// ────────────────────── 账号 ──────────────────────

func (r *entityResolver) openAccount(ctx context.Context, repo *repository.Repository, username, password, role string, refID int64) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return err
	}
	return repo.User.Create(ctx, &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		RefID:        &refID,
	})
}
