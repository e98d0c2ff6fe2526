package model

// Teacher 教师表，对应 teachers
type Teacher struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"              json:"id"`
	TeacherNo  string `gorm:"type:varchar(32);not null;uniqueIndex" json:"teacher_no"`
	Name       string `gorm:"type:varchar(64);not null"             json:"name"`
	Department string `gorm:"type:varchar(128);not null;default:''" json:"department"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
