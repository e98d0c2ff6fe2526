package dto

// ── 统计模块 DTO ──

// StatisticsFilter 课程统计过滤条件（大小写不敏感的子串匹配）
type StatisticsFilter struct {
	CourseCode string `form:"course_code"`
	CourseName string `form:"course_name"`
}

// EntityCounts 各类实体总数
type EntityCounts struct {
	Students    int64 `json:"students"`
	Teachers    int64 `json:"teachers"`
	Courses     int64 `json:"courses"`
	Enrollments int64 `json:"enrollments"`
}

// CourseStatistics 单门课程统计
type CourseStatistics struct {
	CourseID      int64    `json:"course_id"`
	CourseCode    string   `json:"course_code"`
	Name          string   `json:"name"`
	EnrolledCount int      `json:"enrolled_count"`
	AvgGrade      *float64 `json:"avg_grade"`
	PassRate      *float64 `json:"pass_rate"`
	ExcellentRate *float64 `json:"excellent_rate"`
}

// StatisticsResponse 全局统计结果
type StatisticsResponse struct {
	Counts  EntityCounts       `json:"counts"`
	Courses []CourseStatistics `json:"courses"`
}
