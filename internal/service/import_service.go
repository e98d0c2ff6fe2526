package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/internal/dto"
	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
	"github.com/YuYe10/DB-EX3/pkg/grading"
	"github.com/YuYe10/DB-EX3/pkg/metrics"
	"github.com/YuYe10/DB-EX3/pkg/numeric"
	"github.com/YuYe10/DB-EX3/pkg/workbook"
)

// 工作表名
const (
	SheetStudents    = "students"
	SheetCourses     = "courses"
	SheetEnrollments = "enrollments"
	SheetCourse      = "course" // 教师名单导入的课程信息
)

const defaultCapacity = 50

// 导入计数的实体与结果，同时作为指标标签
const (
	entityCourses     = "courses"
	entityTeachers    = "teachers"
	entityStudents    = "students"
	entityEnrollments = "enrollments"

	outcomeCreated  = "created"
	outcomeSkipped  = "skipped"
	outcomeEnriched = "enriched"
)

// rosterCourseHeader / rosterStudentHeader 名单模板表头
var (
	rosterCourseHeader  = []string{"course_code", "name", "credit", "capacity"}
	rosterStudentHeader = []string{"student_no", "name", "major"}
)

var errRowRejected = errors.New("row rejected")

// ImportService 表格批量导入接口
//
// 一次导入在一个事务内完成，每一行在独立的 SAVEPOINT 中处理：
// 单行失败只回滚该行并记入 errors，不影响其他行；ctx 取消则整批回滚。
type ImportService interface {
	// ImportCourses 管理员导入 students / courses / enrollments 三个工作表，courses 必须存在
	ImportCourses(ctx context.Context, book workbook.Source) (*dto.ImportSummary, error)
	// ImportCourseRoster 教师导入单门课程及其学生名单
	ImportCourseRoster(ctx context.Context, actor Actor, book workbook.Source) (*dto.RosterImportSummary, error)
	// RosterTemplate 生成名单导入示例文件
	RosterTemplate() (*bytes.Buffer, string, error)
}

type importService struct {
	repo     *repository.Repository
	resolver EntityResolver
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, resolver EntityResolver, m *metrics.Metrics, logger *zap.Logger) ImportService {
	return &importService{
		repo:     repo,
		resolver: resolver,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── 批次状态 ──────────────────────

// importBatch 一次导入内的自然键缓存。
// seen 记录本批次已计数过的键，每个实体只在首次出现时计入 created 或 skipped。
type importBatch struct {
	students map[string]int64
	teachers map[string]repository.TeacherRef
	courses  map[string]int64
	seen     map[string]bool
}

func newImportBatch(students map[string]int64, teachers map[string]repository.TeacherRef, courses map[string]int64) *importBatch {
	if students == nil {
		students = map[string]int64{}
	}
	if teachers == nil {
		teachers = map[string]repository.TeacherRef{}
	}
	if courses == nil {
		courses = map[string]int64{}
	}
	return &importBatch{students: students, teachers: teachers, courses: courses, seen: map[string]bool{}}
}

func (b *importBatch) markSeen(key string) func(*importBatch) {
	return func(b *importBatch) { b.seen[key] = true }
}

type rowEffect struct {
	entity  string
	outcome string
}

// rowResult 单行处理结果。effects 与 apply 只在该行的 SAVEPOINT 提交后生效。
type rowResult struct {
	effects []rowEffect
	apply   []func(*importBatch)
	reason  string
}

func rejectRow(format string, args ...interface{}) rowResult {
	return rowResult{reason: fmt.Sprintf(format, args...)}
}

func (r *rowResult) count(entity, outcome string) {
	r.effects = append(r.effects, rowEffect{entity: entity, outcome: outcome})
}

func (r *rowResult) then(fn func(*importBatch)) {
	r.apply = append(r.apply, fn)
}

type rowFunc func(ctx context.Context, tx *repository.Repository, b *importBatch, row workbook.Row) (rowResult, error)

// runRow 在 SAVEPOINT 中处理一行。仅在 ctx 取消时返回 error。
func (s *importService) runRow(ctx context.Context, tx *repository.Repository, b *importBatch, sheet string, row workbook.Row, fn rowFunc) (rowResult, error) {
	if err := ctx.Err(); err != nil {
		return rowResult{}, err
	}

	var res rowResult
	err := tx.Transaction(ctx, func(rowTx *repository.Repository) error {
		var err error
		res, err = fn(ctx, rowTx, b, row)
		if err != nil {
			return err
		}
		if res.reason != "" {
			return errRowRejected
		}
		return nil
	})

	switch {
	case err == nil:
		for _, apply := range res.apply {
			apply(b)
		}
		return res, nil
	case errors.Is(err, errRowRejected):
		return rowResult{reason: res.reason}, nil
	case ctx.Err() != nil:
		return rowResult{}, ctx.Err()
	case apperrors.KindOf(err) == apperrors.KindInternal:
		s.logger.Warn("导入行写入失败",
			zap.String("sheet", sheet),
			zap.Int("row", row.Number),
			zap.Error(err),
		)
		return rowResult{reason: "写入失败，已跳过"}, nil
	default:
		return rowResult{reason: apperrors.MessageOf(err)}, nil
	}
}

// ────────────────────── 实体解析（带首次计数） ──────────────────────

func (s *importService) touchStudent(ctx context.Context, tx *repository.Repository, b *importBatch, res *rowResult, seed StudentSeed) (int64, error) {
	key := "student:" + seed.StudentNo
	if id, ok := b.students[seed.StudentNo]; ok {
		if !b.seen[key] {
			res.count(entityStudents, outcomeSkipped)
			res.then(b.markSeen(key))
		}
		return id, nil
	}

	id, outcome, err := s.resolver.ResolveOrCreateStudent(ctx, tx, seed)
	if err != nil {
		return 0, err
	}
	if outcome == OutcomeCreated {
		res.count(entityStudents, outcomeCreated)
	} else {
		res.count(entityStudents, outcomeSkipped)
	}
	res.then(func(b *importBatch) {
		b.students[seed.StudentNo] = id
		b.seen[key] = true
	})
	return id, nil
}

func (s *importService) touchTeacher(ctx context.Context, tx *repository.Repository, b *importBatch, res *rowResult, seed TeacherSeed) (int64, error) {
	key := "teacher:" + seed.TeacherNo
	if ref, ok := b.teachers[seed.TeacherNo]; ok {
		if !b.seen[key] {
			res.count(entityTeachers, outcomeSkipped)
			res.then(b.markSeen(key))
		}
		if ref.Department == "" && seed.Department != "" {
			updated, err := s.resolver.EnrichTeacher(ctx, tx, ref.ID, seed.Department)
			if err != nil {
				return 0, err
			}
			if updated {
				res.count(entityTeachers, outcomeEnriched)
				res.then(func(b *importBatch) {
					b.teachers[seed.TeacherNo] = repository.TeacherRef{ID: ref.ID, Department: seed.Department}
				})
			}
		}
		return ref.ID, nil
	}

	id, outcome, err := s.resolver.ResolveOrCreateTeacher(ctx, tx, seed)
	if err != nil {
		return 0, err
	}
	switch outcome {
	case OutcomeCreated:
		res.count(entityTeachers, outcomeCreated)
	case OutcomeEnriched:
		res.count(entityTeachers, outcomeSkipped)
		res.count(entityTeachers, outcomeEnriched)
	default:
		res.count(entityTeachers, outcomeSkipped)
	}
	res.then(func(b *importBatch) {
		b.teachers[seed.TeacherNo] = repository.TeacherRef{ID: id, Department: seed.Department}
		b.seen[key] = true
	})
	return id, nil
}

func (s *importService) touchEnrollment(ctx context.Context, tx *repository.Repository, b *importBatch, res *rowResult, e *model.Enrollment) error {
	key := fmt.Sprintf("enrollment:%d:%d", e.StudentID, e.CourseID)
	if b.seen[key] {
		return nil
	}

	_, err := tx.Enrollment.GetByPair(ctx, e.StudentID, e.CourseID)
	switch {
	case err == nil:
		res.count(entityEnrollments, outcomeSkipped)
	case repository.IsNotFound(err):
		_, outcome, err := s.resolver.EnsureEnrollment(ctx, tx, e)
		if err != nil {
			return err
		}
		if outcome == OutcomeCreated {
			res.count(entityEnrollments, outcomeCreated)
		} else {
			res.count(entityEnrollments, outcomeSkipped)
		}
	default:
		return err
	}
	res.then(b.markSeen(key))
	return nil
}

// ═══════════════════════════════════════════════════════════
// ImportCourses: 管理员批量导入
// ═══════════════════════════════════════════════════════════
//
// 工作表按 students → courses → enrollments 顺序处理：
//   - students:    student_no(必填), name, major
//   - courses:     course_code, name(必填), credit, capacity,
//                  teacher_no, teacher_name, teacher_department / department
//   - enrollments: course_code, student_no(必填), student_name, major, grade, status
//
// 选课行引用的课程必须已存在（库中或本文件 courses 表），学生不存在时就地创建。

func (s *importService) ImportCourses(ctx context.Context, book workbook.Source) (*dto.ImportSummary, error) {
	coursesSheet, ok := book.Sheet(SheetCourses)
	if !ok {
		return nil, apperrors.Validation("Excel需包含名称为 'courses' 的工作表")
	}
	studentsSheet, _ := book.Sheet(SheetStudents)
	enrollmentsSheet, _ := book.Sheet(SheetEnrollments)

	start := s.now()
	summary := dto.NewImportSummary()

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		b, err := s.preload(ctx, tx)
		if err != nil {
			return err
		}

		steps := []struct {
			sheet *workbook.Sheet
			fn    rowFunc
		}{
			{studentsSheet, s.importStudentRow},
			{coursesSheet, s.importCourseRow},
			{enrollmentsSheet, s.importEnrollmentRow},
		}
		for _, step := range steps {
			if step.sheet == nil {
				continue
			}
			for _, row := range step.sheet.Rows {
				res, err := s.runRow(ctx, tx, b, step.sheet.Name, row, step.fn)
				if err != nil {
					return err
				}
				if res.reason != "" {
					summary.AddError(step.sheet.Name, row.Number, res.reason)
					continue
				}
				for _, e := range res.effects {
					tallyImport(summary, e)
				}
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("批量导入失败", zap.Error(err))
		return nil, apperrors.Internal(err, "批量导入失败")
	}

	s.recordImportMetrics("courses", start, summary)
	s.logger.Info("批量导入完成",
		zap.Int("courses_created", summary.CoursesCreated),
		zap.Int("students_created", summary.StudentsCreated),
		zap.Int("enrollments_created", summary.EnrollmentsCreated),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

func (s *importService) preload(ctx context.Context, tx *repository.Repository) (*importBatch, error) {
	students, err := tx.Student.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := tx.Teacher.ListRefs(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := tx.Course.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	return newImportBatch(students, teachers, courses), nil
}

func (s *importService) importStudentRow(ctx context.Context, tx *repository.Repository, b *importBatch, row workbook.Row) (rowResult, error) {
	no := row.Get("student_no")
	if no == "" {
		return rejectRow("学生行缺少 student_no，已跳过"), nil
	}
	var res rowResult
	_, err := s.touchStudent(ctx, tx, b, &res, StudentSeed{
		StudentNo: no,
		Name:      row.Get("name"),
		Major:     row.Get("major"),
	})
	return res, err
}

func (s *importService) importCourseRow(ctx context.Context, tx *repository.Repository, b *importBatch, row workbook.Row) (rowResult, error) {
	code, name := row.Get("course_code"), row.Get("name")
	if code == "" || name == "" {
		return rejectRow("课程行缺少 course_code 或 name，已跳过"), nil
	}
	credit := numeric.Float(row.Get("credit"), 0)
	capacity := numeric.Int(row.Get("capacity"), defaultCapacity)
	if credit < 0 || credit >= 100 {
		return rejectRow("课程 %s 学分无效: %s", code, row.Get("credit")), nil
	}
	if capacity < 0 {
		return rejectRow("课程 %s 容量不能为负数", code), nil
	}

	var res rowResult
	var teacherID *int64
	if no := row.Get("teacher_no"); no != "" {
		id, err := s.touchTeacher(ctx, tx, b, &res, TeacherSeed{
			TeacherNo:  no,
			Name:       row.Get("teacher_name"),
			Department: row.First("teacher_department", "department"),
		})
		if err != nil {
			return res, err
		}
		teacherID = &id
	}

	key := "course:" + code
	if _, ok := b.courses[code]; ok {
		if !b.seen[key] {
			res.count(entityCourses, outcomeSkipped)
			res.then(b.markSeen(key))
		}
		return res, nil
	}

	id, outcome, err := s.resolver.CreateCourse(ctx, tx, &model.Course{
		CourseCode: code,
		Name:       name,
		Credit:     credit,
		Capacity:   capacity,
		TeacherID:  teacherID,
	})
	if err != nil {
		return res, err
	}
	if outcome == OutcomeCreated {
		res.count(entityCourses, outcomeCreated)
	} else {
		res.count(entityCourses, outcomeSkipped)
	}
	res.then(func(b *importBatch) {
		b.courses[code] = id
		b.seen[key] = true
	})
	return res, nil
}

func (s *importService) importEnrollmentRow(ctx context.Context, tx *repository.Repository, b *importBatch, row workbook.Row) (rowResult, error) {
	code, no := row.Get("course_code"), row.Get("student_no")
	if code == "" || no == "" {
		return rejectRow("选课行缺少 course_code 或 student_no，已跳过"), nil
	}
	courseID, ok := b.courses[code]
	if !ok {
		return rejectRow("课程 %s 未找到，选课跳过", code), nil
	}
	grade := numeric.OptionalFloat(row.Get("grade"))
	if grade != nil {
		if !grading.ScoreInRange(*grade) {
			return rejectRow("成绩必须在0-100之间"), nil
		}
		g := grading.RoundGrade(*grade)
		grade = &g
	}
	status := row.Get("status")
	if status == "" {
		status = model.EnrollmentStatusEnrolled
	}

	var res rowResult
	studentID, err := s.touchStudent(ctx, tx, b, &res, StudentSeed{
		StudentNo: no,
		Name:      row.Get("student_name"),
		Major:     row.Get("major"),
	})
	if err != nil {
		return res, err
	}
	err = s.touchEnrollment(ctx, tx, b, &res, &model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    status,
		Grade:     grade,
	})
	return res, err
}

func tallyImport(sum *dto.ImportSummary, e rowEffect) {
	switch e.entity + "/" + e.outcome {
	case entityCourses + "/" + outcomeCreated:
		sum.CoursesCreated++
	case entityCourses + "/" + outcomeSkipped:
		sum.CoursesSkipped++
	case entityTeachers + "/" + outcomeCreated:
		sum.TeachersCreated++
	case entityTeachers + "/" + outcomeSkipped:
		sum.TeachersSkipped++
	case entityTeachers + "/" + outcomeEnriched:
		sum.TeachersEnriched++
	case entityStudents + "/" + outcomeCreated:
		sum.StudentsCreated++
	case entityStudents + "/" + outcomeSkipped:
		sum.StudentsSkipped++
	case entityEnrollments + "/" + outcomeCreated:
		sum.EnrollmentsCreated++
	case entityEnrollments + "/" + outcomeSkipped:
		sum.EnrollmentsSkipped++
	}
}

func (s *importService) recordImportMetrics(kind string, start time.Time, sum *dto.ImportSummary) {
	s.metrics.ObserveImport(kind, s.now().Sub(start))
	s.metrics.AddImportRows(entityCourses, outcomeCreated, sum.CoursesCreated)
	s.metrics.AddImportRows(entityCourses, outcomeSkipped, sum.CoursesSkipped)
	s.metrics.AddImportRows(entityTeachers, outcomeCreated, sum.TeachersCreated)
	s.metrics.AddImportRows(entityTeachers, outcomeSkipped, sum.TeachersSkipped)
	s.metrics.AddImportRows(entityTeachers, outcomeEnriched, sum.TeachersEnriched)
	s.metrics.AddImportRows(entityStudents, outcomeCreated, sum.StudentsCreated)
	s.metrics.AddImportRows(entityStudents, outcomeSkipped, sum.StudentsSkipped)
	s.metrics.AddImportRows(entityEnrollments, outcomeCreated, sum.EnrollmentsCreated)
	s.metrics.AddImportRows(entityEnrollments, outcomeSkipped, sum.EnrollmentsSkipped)
	s.metrics.AddImportRows("rows", "error", len(sum.Errors))
}

// ═══════════════════════════════════════════════════════════
// ImportCourseRoster: 教师导入单门课程名单
// ═══════════════════════════════════════════════════════════
//
//   - course:   首行 course_code, name(必填), credit, capacity
//   - students: student_no(必填), name, major
//
// 课程号已存在且属于当前教师（或未绑定教师）时更新课程信息，属于其他教师时拒绝整批。

func (s *importService) ImportCourseRoster(ctx context.Context, actor Actor, book workbook.Source) (*dto.RosterImportSummary, error) {
	teacherID, ok := actor.TeacherID()
	if !ok {
		return nil, apperrors.Permission("仅授课教师可导入课程名单")
	}
	courseSheet, ok := book.Sheet(SheetCourse)
	if !ok {
		return nil, apperrors.Validation("Excel需包含名称为 'course' 的工作表，提供课程信息")
	}
	studentsSheet, ok := book.Sheet(SheetStudents)
	if !ok {
		return nil, apperrors.Validation("Excel需包含名称为 'students' 的工作表，提供学生名单")
	}
	if len(courseSheet.Rows) == 0 {
		return nil, apperrors.Validation("'course' 工作表为空，至少需要一行课程信息")
	}
	head := courseSheet.Rows[0]
	code, name := head.Get("course_code"), head.Get("name")
	if code == "" || name == "" {
		return nil, apperrors.Validation("course_code 与 name 为必填")
	}
	credit := numeric.Float(head.Get("credit"), 0)
	capacity := numeric.Int(head.Get("capacity"), defaultCapacity)
	if credit < 0 || credit >= 100 {
		return nil, apperrors.Validation("学分无效: %s", head.Get("credit"))
	}
	if capacity < 0 {
		return nil, apperrors.Validation("容量不能为负数")
	}

	start := s.now()
	summary := &dto.RosterImportSummary{
		CourseCode: code,
		CourseName: name,
		Errors:     []dto.ImportRowError{},
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		courseID, err := s.upsertRosterCourse(ctx, tx, teacherID, &model.Course{
			CourseCode: code,
			Name:       name,
			Credit:     credit,
			Capacity:   capacity,
		}, summary)
		if err != nil {
			return err
		}
		summary.CourseID = courseID

		students, err := tx.Student.ListKeys(ctx)
		if err != nil {
			return err
		}
		b := newImportBatch(students, nil, map[string]int64{code: courseID})

		for _, row := range studentsSheet.Rows {
			res, err := s.runRow(ctx, tx, b, studentsSheet.Name, row, func(ctx context.Context, rowTx *repository.Repository, b *importBatch, row workbook.Row) (rowResult, error) {
				no := row.Get("student_no")
				if no == "" {
					return rejectRow("学生行缺少 student_no，已跳过"), nil
				}
				var res rowResult
				studentID, err := s.touchStudent(ctx, rowTx, b, &res, StudentSeed{
					StudentNo: no,
					Name:      row.Get("name"),
					Major:     row.Get("major"),
				})
				if err != nil {
					return res, err
				}
				err = s.touchEnrollment(ctx, rowTx, b, &res, &model.Enrollment{
					StudentID: studentID,
					CourseID:  courseID,
					Status:    model.EnrollmentStatusEnrolled,
				})
				return res, err
			})
			if err != nil {
				return err
			}
			if res.reason != "" {
				summary.AddError(studentsSheet.Name, row.Number, res.reason)
				continue
			}
			for _, e := range res.effects {
				tallyRoster(summary, e)
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if apperrors.KindOf(err) != apperrors.KindInternal {
			return nil, err
		}
		s.logger.Error("导入课程名单失败", zap.String("course_code", code), zap.Error(err))
		return nil, apperrors.Internal(err, "导入课程名单失败")
	}

	s.metrics.ObserveImport("roster", s.now().Sub(start))
	s.metrics.AddImportRows(entityStudents, outcomeCreated, summary.StudentsCreated)
	s.metrics.AddImportRows(entityStudents, outcomeSkipped, summary.StudentsSkipped)
	s.metrics.AddImportRows(entityEnrollments, outcomeCreated, summary.EnrollmentsCreated)
	s.metrics.AddImportRows(entityEnrollments, outcomeSkipped, summary.EnrollmentsSkipped)
	s.metrics.AddImportRows("rows", "error", len(summary.Errors))
	return summary, nil
}

// upsertRosterCourse 创建或更新名单对应的课程并绑定到当前教师
func (s *importService) upsertRosterCourse(ctx context.Context, tx *repository.Repository, teacherID int64, course *model.Course, summary *dto.RosterImportSummary) (int64, error) {
	// 第二轮用于创建时与并发导入撞车的情况
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := tx.Course.GetByCode(ctx, course.CourseCode)
		if err == nil {
			if existing.TeacherID != nil && *existing.TeacherID != teacherID {
				return 0, apperrors.Permission("该课程号已绑定其他教师，无法导入")
			}
			if err := tx.Course.Update(ctx, existing.ID, map[string]interface{}{
				"name":       course.Name,
				"credit":     course.Credit,
				"capacity":   course.Capacity,
				"teacher_id": teacherID,
			}); err != nil {
				return 0, err
			}
			summary.CourseUpdated = 1
			return existing.ID, nil
		}
		if !repository.IsNotFound(err) {
			return 0, err
		}

		course.TeacherID = &teacherID
		id, outcome, err := s.resolver.CreateCourse(ctx, tx, course)
		if err != nil {
			return 0, err
		}
		if outcome == OutcomeCreated {
			summary.CourseCreated = 1
			return id, nil
		}
	}
	return 0, apperrors.Conflict("课程号 %s 正在被其他操作占用，请重试", course.CourseCode)
}

func tallyRoster(sum *dto.RosterImportSummary, e rowEffect) {
	switch e.entity + "/" + e.outcome {
	case entityStudents + "/" + outcomeCreated:
		sum.StudentsCreated++
	case entityStudents + "/" + outcomeSkipped:
		sum.StudentsSkipped++
	case entityEnrollments + "/" + outcomeCreated:
		sum.EnrollmentsCreated++
	case entityEnrollments + "/" + outcomeSkipped:
		sum.EnrollmentsSkipped++
	}
}

// ────────────────────── 名单模板 ──────────────────────

func (s *importService) RosterTemplate() (*bytes.Buffer, string, error) {
	buf, err := workbook.Write(
		workbook.NewSheet(SheetCourse, rosterCourseHeader,
			[]string{"C900", "算法设计", "3", "80"},
		),
		workbook.NewSheet(SheetStudents, rosterStudentHeader,
			[]string{"S1001", "张同学", "计算机"},
			[]string{"S1002", "李同学", "软件工程"},
			[]string{"S1003", "王同学", "人工智能"},
		),
	)
	if err != nil {
		s.logger.Error("生成名单模板失败", zap.Error(err))
		return nil, "", apperrors.Internal(err, "生成名单模板失败")
	}
	filename := fmt.Sprintf("课程名单示例-%s.xlsx", s.now().Format("20060102-150405"))
	return buf, filename, nil
}
