package model

import "time"

// Student 学生表，对应 students
type Student struct {
	ID                int64      `gorm:"primaryKey;autoIncrement"            json:"id"`
	StudentNo         string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"student_no"`
	Name              string     `gorm:"type:varchar(64);not null"           json:"name"`
	Major             string     `gorm:"type:varchar(128);not null;default:''" json:"major"`
	CurrentSemester   int        `gorm:"not null;default:1"                  json:"current_semester"`
	SemesterUpdatedAt *time.Time `json:"semester_updated_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
