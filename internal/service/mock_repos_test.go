package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/YuYe10/DB-EX3/internal/model"
	"github.com/YuYe10/DB-EX3/internal/repository"
)

// ── 内存存储：所有 Mock Repository 共享，模拟唯一约束与级联删除 ──

type memStore struct {
	nextID      int64
	students    map[int64]*model.Student
	teachers    map[int64]*model.Teacher
	courses     map[int64]*model.Course
	enrollments map[int64]*model.Enrollment
	plans       map[int64]*model.MajorPlan
	planCourses map[int64]*model.MajorPlanCourse
	users       map[int64]*model.User

	// fail 按操作名注入错误，如 "course.create"
	fail map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		students:    map[int64]*model.Student{},
		teachers:    map[int64]*model.Teacher{},
		courses:     map[int64]*model.Course{},
		enrollments: map[int64]*model.Enrollment{},
		plans:       map[int64]*model.MajorPlan{},
		planCourses: map[int64]*model.MajorPlanCourse{},
		users:       map[int64]*model.User{},
		fail:        map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) injected(op string) error {
	return m.fail[op]
}

// repository 构造绑定到该存储的 Repository 聚合（未注入数据库，Transaction 直接执行）
func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Student:    &mockStudentRepo{m},
		Teacher:    &mockTeacherRepo{m},
		Course:     &mockCourseRepo{m},
		Enrollment: &mockEnrollmentRepo{m},
		MajorPlan:  &mockMajorPlanRepo{m},
		User:       &mockUserRepo{m},
	}
}

// ── 测试数据辅助 ──

func (m *memStore) addStudent(no, name, major string, semester int) *model.Student {
	st := &model.Student{ID: m.id(), StudentNo: no, Name: name, Major: major, CurrentSemester: semester}
	m.students[st.ID] = st
	return st
}

func (m *memStore) addTeacher(no, name, dept string) *model.Teacher {
	t := &model.Teacher{ID: m.id(), TeacherNo: no, Name: name, Department: dept}
	m.teachers[t.ID] = t
	return t
}

func (m *memStore) addCourse(code, name string, teacherID *int64) *model.Course {
	c := &model.Course{ID: m.id(), CourseCode: code, Name: name, Credit: 3, Capacity: 50, TeacherID: teacherID}
	m.courses[c.ID] = c
	return c
}

func (m *memStore) addEnrollment(studentID, courseID int64) *model.Enrollment {
	e := &model.Enrollment{ID: m.id(), StudentID: studentID, CourseID: courseID, Status: model.EnrollmentStatusEnrolled}
	m.enrollments[e.ID] = e
	return e
}

func (m *memStore) addPlan(major string) *model.MajorPlan {
	p := &model.MajorPlan{ID: m.id(), MajorName: major}
	m.plans[p.ID] = p
	return p
}

func (m *memStore) addPlanCourse(planID, courseID int64, semester int) *model.MajorPlanCourse {
	pc := &model.MajorPlanCourse{ID: m.id(), PlanID: planID, CourseID: courseID, Semester: semester, IsRequired: true}
	m.planCourses[pc.ID] = pc
	return pc
}

func (m *memStore) courseWithTeacher(c *model.Course) *model.Course {
	cp := *c
	cp.Teacher = nil
	if c.TeacherID != nil {
		if t, ok := m.teachers[*c.TeacherID]; ok {
			tc := *t
			cp.Teacher = &tc
		}
	}
	return &cp
}

func floatColumn(v interface{}) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return &x
	case *float64:
		if x == nil {
			return nil
		}
		f := *x
		return &f
	}
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ m *memStore }

func (r *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if err := r.m.injected("student.create"); err != nil {
		return err
	}
	for _, s := range r.m.students {
		if s.StudentNo == student.StudentNo {
			return gorm.ErrDuplicatedKey
		}
	}
	student.ID = r.m.id()
	cp := *student
	r.m.students[cp.ID] = &cp
	return nil
}

func (r *mockStudentRepo) GetByID(_ context.Context, id int64) (*model.Student, error) {
	if s, ok := r.m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockStudentRepo) GetByNo(_ context.Context, studentNo string) (*model.Student, error) {
	for _, s := range r.m.students {
		if s.StudentNo == studentNo {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockStudentRepo) ListKeys(_ context.Context) (map[string]int64, error) {
	keys := map[string]int64{}
	for _, s := range r.m.students {
		keys[s.StudentNo] = s.ID
	}
	return keys, nil
}

func (r *mockStudentRepo) List(_ context.Context, major, keyword string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range r.m.students {
		if major != "" && s.Major != major {
			continue
		}
		if keyword != "" && !strings.Contains(s.StudentNo, keyword) && !strings.Contains(s.Name, keyword) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentNo < result[j].StudentNo })
	return result, nil
}

func (r *mockStudentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.m.students)), nil
}

func (r *mockStudentRepo) UpdateSemester(_ context.Context, id int64, semester int, at time.Time) error {
	s, ok := r.m.students[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.CurrentSemester = semester
	s.SemesterUpdatedAt = &at
	return nil
}

func (r *mockStudentRepo) AdvanceSemesters(_ context.Context, cutoff time.Time, max int, at time.Time) (int64, error) {
	var n int64
	for _, s := range r.m.students {
		if s.CurrentSemester >= max {
			continue
		}
		if s.SemesterUpdatedAt != nil && s.SemesterUpdatedAt.After(cutoff) {
			continue
		}
		s.CurrentSemester++
		stamp := at
		s.SemesterUpdatedAt = &stamp
		n++
	}
	return n, nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct{ m *memStore }

func (r *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	if err := r.m.injected("teacher.create"); err != nil {
		return err
	}
	for _, t := range r.m.teachers {
		if t.TeacherNo == teacher.TeacherNo {
			return gorm.ErrDuplicatedKey
		}
	}
	teacher.ID = r.m.id()
	cp := *teacher
	r.m.teachers[cp.ID] = &cp
	return nil
}

func (r *mockTeacherRepo) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	if t, ok := r.m.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockTeacherRepo) GetByNo(_ context.Context, teacherNo string) (*model.Teacher, error) {
	for _, t := range r.m.teachers {
		if t.TeacherNo == teacherNo {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockTeacherRepo) ListRefs(_ context.Context) (map[string]repository.TeacherRef, error) {
	refs := map[string]repository.TeacherRef{}
	for _, t := range r.m.teachers {
		refs[t.TeacherNo] = repository.TeacherRef{ID: t.ID, Department: t.Department}
	}
	return refs, nil
}

func (r *mockTeacherRepo) List(_ context.Context) ([]model.Teacher, error) {
	var result []model.Teacher
	for _, t := range r.m.teachers {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TeacherNo < result[j].TeacherNo })
	return result, nil
}

func (r *mockTeacherRepo) BackfillDepartment(_ context.Context, id int64, department string) (bool, error) {
	t, ok := r.m.teachers[id]
	if !ok || t.Department != "" {
		return false, nil
	}
	t.Department = department
	return true, nil
}

func (r *mockTeacherRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.m.teachers)), nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ m *memStore }

func (r *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if err := r.m.injected("course.create"); err != nil {
		return err
	}
	for _, c := range r.m.courses {
		if c.CourseCode == course.CourseCode {
			return gorm.ErrDuplicatedKey
		}
	}
	course.ID = r.m.id()
	cp := *course
	cp.Teacher = nil
	r.m.courses[cp.ID] = &cp
	return nil
}

func (r *mockCourseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	if c, ok := r.m.courses[id]; ok {
		return r.m.courseWithTeacher(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockCourseRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Course, error) {
	return r.GetByID(ctx, id)
}

func (r *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range r.m.courses {
		if c.CourseCode == code {
			return r.m.courseWithTeacher(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockCourseRepo) ListKeys(_ context.Context) (map[string]int64, error) {
	keys := map[string]int64{}
	for _, c := range r.m.courses {
		keys[c.CourseCode] = c.ID
	}
	return keys, nil
}

func (r *mockCourseRepo) List(_ context.Context, filter repository.CourseFilter) ([]model.Course, error) {
	var result []model.Course
	for _, c := range r.m.courses {
		if filter.TeacherID != nil && (c.TeacherID == nil || *c.TeacherID != *filter.TeacherID) {
			continue
		}
		if filter.Code != "" && !strings.Contains(strings.ToLower(c.CourseCode), strings.ToLower(filter.Code)) {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Name)) {
			continue
		}
		result = append(result, *r.m.courseWithTeacher(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *mockCourseRepo) Update(_ context.Context, id int64, columns map[string]interface{}) error {
	c, ok := r.m.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, v := range columns {
		switch col {
		case "name":
			c.Name = v.(string)
		case "credit":
			c.Credit = v.(float64)
		case "capacity":
			c.Capacity = v.(int)
		case "teacher_id":
			tid := v.(int64)
			c.TeacherID = &tid
		case "ordinary_weight":
			c.OrdinaryWeight = floatColumn(v)
		case "final_weight":
			c.FinalWeight = floatColumn(v)
		}
	}
	return nil
}

func (r *mockCourseRepo) UpdateRates(_ context.Context, id int64, passRate, excellentRate *float64) error {
	c, ok := r.m.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.PassRate = floatColumn(passRate)
	c.ExcellentRate = floatColumn(excellentRate)
	return nil
}

func (r *mockCourseRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.m.courses)), nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ m *memStore }

func (r *mockEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	if err := r.m.injected("enrollment.create"); err != nil {
		return err
	}
	for _, e := range r.m.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = r.m.id()
	cp := *enrollment
	cp.Student, cp.Course = nil, nil
	r.m.enrollments[cp.ID] = &cp
	return nil
}

func (r *mockEnrollmentRepo) withCourse(e *model.Enrollment) *model.Enrollment {
	cp := *e
	if c, ok := r.m.courses[e.CourseID]; ok {
		cp.Course = r.m.courseWithTeacher(c)
	}
	return &cp
}

func (r *mockEnrollmentRepo) GetByID(_ context.Context, id int64) (*model.Enrollment, error) {
	if e, ok := r.m.enrollments[id]; ok {
		return r.withCourse(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockEnrollmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Enrollment, error) {
	return r.GetByID(ctx, id)
}

func (r *mockEnrollmentRepo) GetByPair(_ context.Context, studentID, courseID int64) (*model.Enrollment, error) {
	for _, e := range r.m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID int64) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range r.m.enrollments {
		if e.CourseID != courseID {
			continue
		}
		cp := *e
		if s, ok := r.m.students[e.StudentID]; ok {
			sc := *s
			cp.Student = &sc
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Student.StudentNo < result[j].Student.StudentNo
	})
	return result, nil
}

func (r *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID int64) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range r.m.enrollments {
		if e.StudentID == studentID {
			result = append(result, *r.withCourse(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *mockEnrollmentRepo) ListGrades(_ context.Context) ([]repository.GradeRow, error) {
	var rows []repository.GradeRow
	for _, e := range r.m.enrollments {
		rows = append(rows, repository.GradeRow{CourseID: e.CourseID, Grade: e.Grade, FinalGrade: e.FinalGrade})
	}
	return rows, nil
}

func (r *mockEnrollmentRepo) CountByCourse(_ context.Context, courseIDs []int64) (map[int64]int64, error) {
	want := map[int64]bool{}
	for _, id := range courseIDs {
		want[id] = true
	}
	counts := map[int64]int64{}
	for _, e := range r.m.enrollments {
		if want[e.CourseID] {
			counts[e.CourseID]++
		}
	}
	return counts, nil
}

func (r *mockEnrollmentRepo) Update(_ context.Context, id int64, columns map[string]interface{}) error {
	if err := r.m.injected("enrollment.update"); err != nil {
		return err
	}
	e, ok := r.m.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, v := range columns {
		switch col {
		case "grade":
			e.Grade = floatColumn(v)
		case "ordinary_score":
			e.OrdinaryScore = floatColumn(v)
		case "final_score":
			e.FinalScore = floatColumn(v)
		case "final_grade":
			e.FinalGrade = floatColumn(v)
		case "status":
			e.Status = v.(string)
		}
	}
	return nil
}

func (r *mockEnrollmentRepo) SetFinalGrades(_ context.Context, grades map[int64]*float64) error {
	for id, g := range grades {
		e, ok := r.m.enrollments[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		e.FinalGrade = floatColumn(g)
	}
	return nil
}

func (r *mockEnrollmentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.m.enrollments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.enrollments, id)
	return nil
}

func (r *mockEnrollmentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.m.enrollments)), nil
}

// ── Mock MajorPlanRepository ──

type mockMajorPlanRepo struct{ m *memStore }

func (r *mockMajorPlanRepo) Create(_ context.Context, plan *model.MajorPlan) error {
	for _, p := range r.m.plans {
		if p.MajorName == plan.MajorName {
			return gorm.ErrDuplicatedKey
		}
	}
	plan.ID = r.m.id()
	cp := *plan
	r.m.plans[cp.ID] = &cp
	return nil
}

func (r *mockMajorPlanRepo) GetByID(_ context.Context, id int64) (*model.MajorPlan, error) {
	if p, ok := r.m.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockMajorPlanRepo) GetByMajor(_ context.Context, majorName string) (*model.MajorPlan, error) {
	for _, p := range r.m.plans {
		if p.MajorName == majorName {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockMajorPlanRepo) List(_ context.Context) ([]model.MajorPlan, error) {
	var result []model.MajorPlan
	for _, p := range r.m.plans {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MajorName < result[j].MajorName })
	return result, nil
}

func (r *mockMajorPlanRepo) Update(_ context.Context, id int64, columns map[string]interface{}) error {
	p, ok := r.m.plans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := columns["major_name"]; ok {
		name := v.(string)
		for _, other := range r.m.plans {
			if other.ID != id && other.MajorName == name {
				return gorm.ErrDuplicatedKey
			}
		}
		p.MajorName = name
	}
	if v, ok := columns["description"]; ok {
		p.Description = v.(string)
	}
	return nil
}

func (r *mockMajorPlanRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.m.plans[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.plans, id)
	for pcID, pc := range r.m.planCourses {
		if pc.PlanID == id {
			delete(r.m.planCourses, pcID)
		}
	}
	return nil
}

func (r *mockMajorPlanRepo) AddCourse(_ context.Context, pc *model.MajorPlanCourse) error {
	if err := r.m.injected("plan_course.create"); err != nil {
		return err
	}
	for _, other := range r.m.planCourses {
		if other.PlanID == pc.PlanID && other.CourseID == pc.CourseID && other.Semester == pc.Semester {
			return gorm.ErrDuplicatedKey
		}
	}
	pc.ID = r.m.id()
	cp := *pc
	cp.Course = nil
	r.m.planCourses[cp.ID] = &cp
	return nil
}

func (r *mockMajorPlanRepo) GetCourse(_ context.Context, planID, courseID int64, semester int) (*model.MajorPlanCourse, error) {
	for _, pc := range r.m.planCourses {
		if pc.PlanID == planID && pc.CourseID == courseID && pc.Semester == semester {
			cp := *pc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockMajorPlanRepo) GetCourseByID(_ context.Context, id int64) (*model.MajorPlanCourse, error) {
	if pc, ok := r.m.planCourses[id]; ok {
		cp := *pc
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockMajorPlanRepo) CourseSemesters(_ context.Context, planID, courseID int64) ([]int, error) {
	var result []int
	for _, pc := range r.m.planCourses {
		if pc.PlanID == planID && pc.CourseID == courseID {
			result = append(result, pc.Semester)
		}
	}
	sort.Ints(result)
	return result, nil
}

func (r *mockMajorPlanRepo) ListCourses(_ context.Context, planID int64, semester *int) ([]model.MajorPlanCourse, error) {
	var result []model.MajorPlanCourse
	for _, pc := range r.m.planCourses {
		if pc.PlanID != planID {
			continue
		}
		if semester != nil && pc.Semester != *semester {
			continue
		}
		cp := *pc
		if c, ok := r.m.courses[pc.CourseID]; ok {
			cp.Course = r.m.courseWithTeacher(c)
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Semester != result[j].Semester {
			return result[i].Semester < result[j].Semester
		}
		return result[i].Course.CourseCode < result[j].Course.CourseCode
	})
	return result, nil
}

func (r *mockMajorPlanRepo) RemoveCourse(_ context.Context, id int64) error {
	if _, ok := r.m.planCourses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.planCourses, id)
	return nil
}

func (r *mockMajorPlanRepo) Semesters(_ context.Context, planID int64) ([]int, error) {
	seen := map[int]bool{}
	var result []int
	for _, pc := range r.m.planCourses {
		if pc.PlanID == planID && !seen[pc.Semester] {
			seen[pc.Semester] = true
			result = append(result, pc.Semester)
		}
	}
	sort.Ints(result)
	return result, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ m *memStore }

func (r *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if err := r.m.injected("user.create"); err != nil {
		return err
	}
	for _, u := range r.m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.m.id()
	cp := *user
	r.m.users[cp.ID] = &cp
	return nil
}

func (r *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var errInjected = errors.New("injected failure")
