package dto

// ── 课程与选课视图 ──

// CourseResponse 课程信息（含当前选课人数）
type CourseResponse struct {
	ID             int64    `json:"id"`
	CourseCode     string   `json:"course_code"`
	Name           string   `json:"name"`
	Credit         float64  `json:"credit"`
	Capacity       int      `json:"capacity"`
	TeacherID      *int64   `json:"teacher_id"`
	TeacherName    string   `json:"teacher_name,omitempty"`
	OrdinaryWeight *float64 `json:"ordinary_weight"`
	FinalWeight    *float64 `json:"final_weight"`
	PassRate       *float64 `json:"pass_rate"`
	ExcellentRate  *float64 `json:"excellent_rate"`
	EnrolledCount  int64    `json:"enrolled_count"`
}

// CourseStudentResponse 课程名单中的一名学生
type CourseStudentResponse struct {
	EnrollmentID  int64    `json:"enrollment_id"`
	StudentID     int64    `json:"student_id"`
	StudentNo     string   `json:"student_no"`
	Name          string   `json:"name"`
	Major         string   `json:"major"`
	Status        string   `json:"status"`
	Grade         *float64 `json:"grade"`
	OrdinaryScore *float64 `json:"ordinary_score"`
	FinalScore    *float64 `json:"final_score"`
	FinalGrade    *float64 `json:"final_grade"`
}

// AvailableCourseResponse 学生可选课程
// Semester / IsRequired 在学生专业没有培养方案时为空
type AvailableCourseResponse struct {
	CourseID        int64   `json:"course_id"`
	CourseCode      string  `json:"course_code"`
	Name            string  `json:"name"`
	Credit          float64 `json:"credit"`
	Capacity        int     `json:"capacity"`
	TeacherName     string  `json:"teacher_name"`
	Semester        *int    `json:"semester"`
	IsRequired      *bool   `json:"is_required"`
	EnrolledCount   int64   `json:"enrolled_count"`
	AlreadyEnrolled bool    `json:"already_enrolled"`
}

// StudentEnrollmentResponse 学生的一条选课记录
type StudentEnrollmentResponse struct {
	EnrollmentID  int64    `json:"enrollment_id"`
	CourseID      int64    `json:"course_id"`
	CourseCode    string   `json:"course_code"`
	CourseName    string   `json:"course_name"`
	Credit        float64  `json:"credit"`
	TeacherName   string   `json:"teacher_name"`
	Status        string   `json:"status"`
	Grade         *float64 `json:"grade"`
	OrdinaryScore *float64 `json:"ordinary_score"`
	FinalScore    *float64 `json:"final_score"`
	FinalGrade    *float64 `json:"final_grade"`
}

// EnrollRequest 学生选课请求
type EnrollRequest struct {
	CourseID int64 `json:"course_id" binding:"required,gt=0"`
}

// EnrollResponse 选课成功响应
type EnrollResponse struct {
	EnrollmentID int64 `json:"enrollment_id"`
}

// UpdateSemesterRequest 设置学生当前学期
type UpdateSemesterRequest struct {
	Semester int `json:"semester" binding:"required"`
}

// AdvanceSemesterResponse 批量推进学期结果
type AdvanceSemesterResponse struct {
	Advanced int64 `json:"advanced"`
}
