package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/YuYe10/DB-EX3/internal/model"
)

// MajorPlanRepository 培养方案数据访问接口
type MajorPlanRepository interface {
	Create(ctx context.Context, plan *model.MajorPlan) error
	GetByID(ctx context.Context, id int64) (*model.MajorPlan, error)
	GetByMajor(ctx context.Context, majorName string) (*model.MajorPlan, error)
	List(ctx context.Context) ([]model.MajorPlan, error)
	Update(ctx context.Context, id int64, columns map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	AddCourse(ctx context.Context, pc *model.MajorPlanCourse) error
	GetCourse(ctx context.Context, planID, courseID int64, semester int) (*model.MajorPlanCourse, error)
	GetCourseByID(ctx context.Context, id int64) (*model.MajorPlanCourse, error)
	// CourseSemesters 课程在方案中安排的全部学期（升序）
	CourseSemesters(ctx context.Context, planID, courseID int64) ([]int, error)
	// ListCourses semester 为 nil 时返回全部学期，按学期、课程号排序并带出课程与教师
	ListCourses(ctx context.Context, planID int64, semester *int) ([]model.MajorPlanCourse, error)
	RemoveCourse(ctx context.Context, id int64) error
	Semesters(ctx context.Context, planID int64) ([]int, error)
}

type majorPlanRepo struct {
	db *gorm.DB
}

// NewMajorPlanRepo 创建 MajorPlanRepository 实例
func NewMajorPlanRepo(db *gorm.DB) MajorPlanRepository {
	return &majorPlanRepo{db: db}
}

func (r *majorPlanRepo) Create(ctx context.Context, plan *model.MajorPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *majorPlanRepo) GetByID(ctx context.Context, id int64) (*model.MajorPlan, error) {
	var plan model.MajorPlan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *majorPlanRepo) GetByMajor(ctx context.Context, majorName string) (*model.MajorPlan, error) {
	var plan model.MajorPlan
	if err := r.db.WithContext(ctx).Where("major_name = ?", majorName).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *majorPlanRepo) List(ctx context.Context) ([]model.MajorPlan, error) {
	var plans []model.MajorPlan
	err := r.db.WithContext(ctx).Order("major_name").Find(&plans).Error
	return plans, err
}

func (r *majorPlanRepo) Update(ctx context.Context, id int64, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.MajorPlan{}).
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

// Delete 方案课程由外键级联删除
func (r *majorPlanRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MajorPlan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *majorPlanRepo) AddCourse(ctx context.Context, pc *model.MajorPlanCourse) error {
	return r.db.WithContext(ctx).Omit("Course").Create(pc).Error
}

func (r *majorPlanRepo) GetCourse(ctx context.Context, planID, courseID int64, semester int) (*model.MajorPlanCourse, error) {
	var pc model.MajorPlanCourse
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND course_id = ? AND semester = ?", planID, courseID, semester).
		First(&pc).Error
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *majorPlanRepo) GetCourseByID(ctx context.Context, id int64) (*model.MajorPlanCourse, error) {
	var pc model.MajorPlanCourse
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pc).Error; err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *majorPlanRepo) CourseSemesters(ctx context.Context, planID, courseID int64) ([]int, error) {
	var semesters []int
	err := r.db.WithContext(ctx).
		Model(&model.MajorPlanCourse{}).
		Where("plan_id = ? AND course_id = ?", planID, courseID).
		Order("semester").
		Pluck("semester", &semesters).Error
	return semesters, err
}

func (r *majorPlanRepo) ListCourses(ctx context.Context, planID int64, semester *int) ([]model.MajorPlanCourse, error) {
	var list []model.MajorPlanCourse
	db := r.db.WithContext(ctx).
		Joins("JOIN courses ON courses.id = major_plan_courses.course_id").
		Preload("Course.Teacher").
		Where("major_plan_courses.plan_id = ?", planID)
	if semester != nil {
		db = db.Where("major_plan_courses.semester = ?", *semester)
	}
	err := db.Order("major_plan_courses.semester, courses.course_code").Find(&list).Error
	return list, err
}

func (r *majorPlanRepo) RemoveCourse(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MajorPlanCourse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *majorPlanRepo) Semesters(ctx context.Context, planID int64) ([]int, error) {
	var semesters []int
	err := r.db.WithContext(ctx).
		Model(&model.MajorPlanCourse{}).
		Distinct("semester").
		Where("plan_id = ?", planID).
		Order("semester").
		Pluck("semester", &semesters).Error
	return semesters, err
}
