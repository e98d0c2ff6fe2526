package model

// MajorPlan 培养方案，对应 major_plans，每个专业一份
type MajorPlan struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"               json:"id"`
	MajorName   string `gorm:"type:varchar(128);not null;uniqueIndex" json:"major_name"`
	Description string `gorm:"type:text;not null;default:''"          json:"description"`
	BaseModel
}

// TableName 指定表名
func (MajorPlan) TableName() string { return "major_plans" }

// MajorPlanCourse 培养方案课程，对应 major_plan_courses
// 同一课程可出现在同一方案的不同学期，(plan_id, course_id, semester) 唯一
type MajorPlanCourse struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"                 json:"id"`
	PlanID     int64 `gorm:"not null;uniqueIndex:uq_major_plan_courses" json:"plan_id"`
	CourseID   int64 `gorm:"not null;uniqueIndex:uq_major_plan_courses" json:"course_id"`
	Semester   int   `gorm:"not null;uniqueIndex:uq_major_plan_courses" json:"semester"`
	IsRequired bool  `gorm:"not null;default:true"                    json:"is_required"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (MajorPlanCourse) TableName() string { return "major_plan_courses" }
