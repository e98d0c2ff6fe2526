package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YuYe10/DB-EX3/internal/model"
)

// CourseFilter 课程列表过滤条件，空值表示不过滤
type CourseFilter struct {
	Code      string // 课程号模糊匹配
	Name      string // 课程名模糊匹配
	TeacherID *int64
}

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	// GetByIDForUpdate 加行锁读取，须在事务中调用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	ListKeys(ctx context.Context) (map[string]int64, error)
	List(ctx context.Context, filter CourseFilter) ([]model.Course, error)
	Update(ctx context.Context, id int64, columns map[string]interface{}) error
	UpdateRates(ctx context.Context, id int64, passRate, excellentRate *float64) error
	Count(ctx context.Context) (int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Omit("Teacher").Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_code = ?", code).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListKeys(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ID         int64
		CourseCode string
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Select("id, course_code").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]int64, len(rows))
	for _, row := range rows {
		keys[row.CourseCode] = row.ID
	}
	return keys, nil
}

func (r *courseRepo) List(ctx context.Context, filter CourseFilter) ([]model.Course, error) {
	var courses []model.Course
	db := r.db.WithContext(ctx).Model(&model.Course{}).Preload("Teacher")
	if filter.Code != "" {
		db = db.Where("course_code ILIKE ?", "%"+filter.Code+"%")
	}
	if filter.Name != "" {
		db = db.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.TeacherID != nil {
		db = db.Where("teacher_id = ?", *filter.TeacherID)
	}
	err := db.Order("id").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, id int64, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) UpdateRates(ctx context.Context, id int64, passRate, excellentRate *float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"pass_rate":      passRate,
			"excellent_rate": excellentRate,
		}).Error
}

func (r *courseRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Count(&n).Error
	return n, err
}
