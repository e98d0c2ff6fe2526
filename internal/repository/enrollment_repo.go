package repository

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YuYe10/DB-EX3/internal/model"
)

// GradeRow 统计所需的最小选课视图
type GradeRow struct {
	CourseID   int64
	Grade      *float64
	FinalGrade *float64
}

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByID(ctx context.Context, id int64) (*model.Enrollment, error)
	// GetByIDForUpdate 加行锁读取并带出课程，须在事务中调用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Enrollment, error)
	GetByPair(ctx context.Context, studentID, courseID int64) (*model.Enrollment, error)
	// ListByCourse 按学号排序，带出学生信息
	ListByCourse(ctx context.Context, courseID int64) ([]model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error)
	ListGrades(ctx context.Context) ([]GradeRow, error)
	CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int64, error)
	Update(ctx context.Context, id int64, columns map[string]interface{}) error
	// SetFinalGrades 批量写入总评，nil 表示清空
	SetFinalGrades(ctx context.Context, grades map[int64]*float64) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Omit("Student", "Course").Create(enrollment).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id int64) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByIDForUpdate 加锁顺序：课程行（共享锁）→ 选课行（排他锁）。
// 占比重算先对课程加排他锁，两者互斥，录入成绩总是读到已提交的占比。
func (r *enrollmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Enrollment, error) {
	var courseIDs []int64
	if err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ?", id).
		Pluck("course_id", &courseIDs).Error; err != nil {
		return nil, err
	}
	if len(courseIDs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var course model.Course
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", courseIDs[0]).
		First(&course).Error; err != nil {
		return nil, err
	}

	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	e.Course = &course
	return &e, nil
}

func (r *enrollmentRepo) GetByPair(ctx context.Context, studentID, courseID int64) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, courseID int64) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Joins("Student").
		Where("enrollments.course_id = ?", courseID).
		Order(`"Student"."student_no"`).
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Teacher").
		Where("student_id = ?", studentID).
		Order("id DESC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ListGrades(ctx context.Context) ([]GradeRow, error) {
	var rows []GradeRow
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Select("course_id, grade, final_grade").
		Find(&rows).Error
	return rows, err
}

func (r *enrollmentRepo) CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		CourseID int64
		N        int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CourseID] = row.N
	}
	return counts, nil
}

func (r *enrollmentRepo) Update(ctx context.Context, id int64, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
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

// SetFinalGrades 单条 UPDATE ... SET final_grade = CASE id WHEN ... END 完成整批写入
func (r *enrollmentRepo) SetFinalGrades(ctx context.Context, grades map[int64]*float64) error {
	if len(grades) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(grades))
	for id := range grades {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var expr strings.Builder
	args := make([]interface{}, 0, 2*len(ids))
	expr.WriteString("CASE id")
	for _, id := range ids {
		expr.WriteString(" WHEN ? THEN CAST(? AS NUMERIC)")
		var v interface{}
		if g := grades[id]; g != nil {
			v = *g
		}
		args = append(args, id, v)
	}
	expr.WriteString(" END")

	return r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"final_grade": gorm.Expr(expr.String(), args...),
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}

func (r *enrollmentRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Enrollment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).Count(&n).Error
	return n, err
}
