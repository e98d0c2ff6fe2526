package model

// User 登录账号，对应 users
// 学生与教师账号在实体创建时一并开通，RefID 指向 students.id / teachers.id
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"              json:"id"`
	Username     string `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"type:varchar(256);not null"            json:"-"`
	Role         string `gorm:"type:varchar(32);not null"             json:"role"`
	RefID        *int64 `json:"ref_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
