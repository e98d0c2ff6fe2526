package service

import "github.com/YuYe10/DB-EX3/internal/model"

// Actor 当前操作者：由认证中间件解析 Token 得到，逐层以参数传入 Service
type Actor struct {
	UserID int64
	Role   string
	RefID  *int64 // 教师/学生账号对应的 teachers.id / students.id
}

// SystemActor 命令行等内部调用使用的管理员身份
func SystemActor() Actor {
	return Actor{Role: model.RoleAdmin}
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// TeacherID 教师身份时返回对应教师 ID
func (a Actor) TeacherID() (int64, bool) {
	if a.Role != model.RoleTeacher || a.RefID == nil {
		return 0, false
	}
	return *a.RefID, true
}

// StudentID 学生身份时返回对应学生 ID
func (a Actor) StudentID() (int64, bool) {
	if a.Role != model.RoleStudent || a.RefID == nil {
		return 0, false
	}
	return *a.RefID, true
}

// canManageCourse 管理员或课程的授课教师
func (a Actor) canManageCourse(course *model.Course) bool {
	if a.IsAdmin() {
		return true
	}
	tid, ok := a.TeacherID()
	return ok && course != nil && course.TeacherID != nil && *course.TeacherID == tid
}
