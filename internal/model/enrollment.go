package model

// Enrollment 选课表，对应 enrollments，每对 (student_id, course_id) 至多一行
type Enrollment struct {
	ID            int64    `gorm:"primaryKey;autoIncrement"                  json:"id"`
	StudentID     int64    `gorm:"not null;uniqueIndex:uq_enrollments_student_course" json:"student_id"`
	CourseID      int64    `gorm:"not null;uniqueIndex:uq_enrollments_student_course" json:"course_id"`
	Status        string   `gorm:"type:varchar(32);not null;default:'enrolled'" json:"status"`
	Grade         *float64 `gorm:"type:numeric(4,1)"                         json:"grade"`
	OrdinaryScore *float64 `gorm:"type:numeric(4,1)"                         json:"ordinary_score"`
	FinalScore    *float64 `gorm:"type:numeric(4,1)"                         json:"final_score"`
	FinalGrade    *float64 `gorm:"type:numeric(4,1)"                         json:"final_grade"`
	BaseModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID"  json:"course,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
