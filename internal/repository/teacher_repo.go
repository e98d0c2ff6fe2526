package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/YuYe10/DB-EX3/internal/model"
)

// TeacherRef 导入缓存中的教师条目
type TeacherRef struct {
	ID         int64
	Department string
}

// TeacherRepository 教师数据访问接口
type TeacherRepository interface {
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
	GetByNo(ctx context.Context, teacherNo string) (*model.Teacher, error)
	ListRefs(ctx context.Context) (map[string]TeacherRef, error)
	List(ctx context.Context) ([]model.Teacher, error)
	// BackfillDepartment 仅在院系为空时写入，返回是否实际更新
	BackfillDepartment(ctx context.Context, id int64, department string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepo) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&teacher).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) GetByNo(ctx context.Context, teacherNo string) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := r.db.WithContext(ctx).Where("teacher_no = ?", teacherNo).First(&teacher).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) ListRefs(ctx context.Context) (map[string]TeacherRef, error) {
	var rows []struct {
		ID         int64
		TeacherNo  string
		Department string
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Select("id, teacher_no, department").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	refs := make(map[string]TeacherRef, len(rows))
	for _, row := range rows {
		refs[row.TeacherNo] = TeacherRef{ID: row.ID, Department: row.Department}
	}
	return refs, nil
}

func (r *teacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).Order("teacher_no").Find(&teachers).Error
	return teachers, err
}

func (r *teacherRepo) BackfillDepartment(ctx context.Context, id int64, department string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("id = ?", id).
		Where("department IS NULL OR department = ''").
		Updates(map[string]interface{}{
			"department": department,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *teacherRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Teacher{}).Count(&n).Error
	return n, err
}
