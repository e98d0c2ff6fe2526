package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/YuYe10/DB-EX3/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	GetByNo(ctx context.Context, studentNo string) (*model.Student, error)
	// ListKeys 学号 -> id 全量映射，导入时作为批次内缓存
	ListKeys(ctx context.Context) (map[string]int64, error)
	List(ctx context.Context, major, keyword string) ([]model.Student, error)
	Count(ctx context.Context) (int64, error)
	UpdateSemester(ctx context.Context, id int64, semester int, at time.Time) error
	// AdvanceSemesters 将 semester_updated_at 早于 cutoff（或为空）且未到 max 的学生学期 +1，返回影响行数
	AdvanceSemesters(ctx context.Context, cutoff time.Time, max int, at time.Time) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByNo(ctx context.Context, studentNo string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_no = ?", studentNo).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ListKeys(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ID        int64
		StudentNo string
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Select("id, student_no").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]int64, len(rows))
	for _, row := range rows {
		keys[row.StudentNo] = row.ID
	}
	return keys, nil
}

func (r *studentRepo) List(ctx context.Context, major, keyword string) ([]model.Student, error) {
	var students []model.Student
	db := r.db.WithContext(ctx).Model(&model.Student{})
	if major != "" {
		db = db.Where("major = ?", major)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		db = db.Where("name ILIKE ? OR student_no ILIKE ?", like, like)
	}
	err := db.Order("student_no").Find(&students).Error
	return students, err
}

func (r *studentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&n).Error
	return n, err
}

func (r *studentRepo) UpdateSemester(ctx context.Context, id int64, semester int, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_semester":    semester,
			"semester_updated_at": at,
			"updated_at":          at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepo) AdvanceSemesters(ctx context.Context, cutoff time.Time, max int, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("current_semester < ?", max).
		Where("semester_updated_at IS NULL OR semester_updated_at <= ?", cutoff).
		Updates(map[string]interface{}{
			"current_semester":    gorm.Expr("LEAST(current_semester + 1, ?)", max),
			"semester_updated_at": at,
			"updated_at":          at,
		})
	return res.RowsAffected, res.Error
}
