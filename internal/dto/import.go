package dto

// ── 批量导入 DTO ──

// ImportRowError 单行导入失败原因，Row 为 Excel 中的行号（表头为第 1 行）
type ImportRowError struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummary 课程/教师/学生/选课批量导入结果
type ImportSummary struct {
	CoursesCreated     int              `json:"courses_created"`
	CoursesSkipped     int              `json:"courses_skipped"`
	TeachersCreated    int              `json:"teachers_created"`
	TeachersSkipped    int              `json:"teachers_skipped"`
	TeachersEnriched   int              `json:"teachers_enriched"`
	StudentsCreated    int              `json:"students_created"`
	StudentsSkipped    int              `json:"students_skipped"`
	EnrollmentsCreated int              `json:"enrollments_created"`
	EnrollmentsSkipped int              `json:"enrollments_skipped"`
	Errors             []ImportRowError `json:"errors"`
}

// NewImportSummary 返回计数清零、错误列表非 nil 的结果
func NewImportSummary() *ImportSummary {
	return &ImportSummary{Errors: []ImportRowError{}}
}

// AddError 记录一行失败
func (s *ImportSummary) AddError(sheet string, row int, reason string) {
	s.Errors = append(s.Errors, ImportRowError{Sheet: sheet, Row: row, Reason: reason})
}

// RosterImportSummary 教师导入单门课程名单的结果
type RosterImportSummary struct {
	CourseID           int64            `json:"course_id"`
	CourseCode         string           `json:"course_code"`
	CourseName         string           `json:"course_name"`
	CourseCreated      int              `json:"course_created"`
	CourseUpdated      int              `json:"course_updated"`
	StudentsCreated    int              `json:"students_created"`
	StudentsSkipped    int              `json:"students_skipped"`
	EnrollmentsCreated int              `json:"enrollments_created"`
	EnrollmentsSkipped int              `json:"enrollments_skipped"`
	Errors             []ImportRowError `json:"errors"`
}

// AddError 记录一行失败
func (s *RosterImportSummary) AddError(sheet string, row int, reason string) {
	s.Errors = append(s.Errors, ImportRowError{Sheet: sheet, Row: row, Reason: reason})
}
