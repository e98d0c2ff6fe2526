package model

// Course 课程表，对应 courses
// PassRate / ExcellentRate 为统计结果的缓存，由统计模块回写
type Course struct {
	ID             int64    `gorm:"primaryKey;autoIncrement"              json:"id"`
	CourseCode     string   `gorm:"type:varchar(32);not null;uniqueIndex" json:"course_code"`
	Name           string   `gorm:"type:varchar(128);not null"            json:"name"`
	Credit         float64  `gorm:"type:numeric(3,1);not null;default:0"  json:"credit"`
	Capacity       int      `gorm:"not null;default:50"                   json:"capacity"`
	TeacherID      *int64   `gorm:"index"                                 json:"teacher_id"`
	OrdinaryWeight *float64 `gorm:"type:numeric(3,2)"                     json:"ordinary_weight"`
	FinalWeight    *float64 `gorm:"type:numeric(3,2)"                     json:"final_weight"`
	PassRate       *float64 `gorm:"type:numeric(5,2)"                     json:"pass_rate"`
	ExcellentRate  *float64 `gorm:"type:numeric(5,2)"                     json:"excellent_rate"`
	BaseModel

	// 关联
	Teacher *Teacher `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
