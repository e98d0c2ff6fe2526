package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/YuYe10/DB-EX3/internal/model"
	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
)

func setupTestResolver() (EntityResolver, *memStore) {
	store := newMemStore()
	return NewEntityResolver(bcrypt.MinCost, zap.NewNop()), store
}

func TestResolveOrCreateStudent_ProvisionsAccount(t *testing.T) {
	r, store := setupTestResolver()
	repo := store.repository()

	id, outcome, err := r.ResolveOrCreateStudent(context.Background(), repo, StudentSeed{StudentNo: "S001", Major: "CS"})
	if err != nil {
		t.Fatalf("创建学生应成功: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("期望 OutcomeCreated，实际=%v", outcome)
	}
	if store.students[id].Name != "S001" {
		t.Errorf("姓名为空时应回退为学号，实际=%s", store.students[id].Name)
	}
	if store.students[id].CurrentSemester != 1 {
		t.Errorf("新学生应从第 1 学期开始")
	}

	user, err := repo.User.GetByUsername(context.Background(), "S001")
	if err != nil {
		t.Fatalf("应同时开通账号: %v", err)
	}
	if user.Role != model.RoleStudent || user.RefID == nil || *user.RefID != id {
		t.Errorf("账号角色或关联不符: %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sS001")) != nil {
		t.Error("初始密码应为 s+学号")
	}

	again, outcome, err := r.ResolveOrCreateStudent(context.Background(), repo, StudentSeed{StudentNo: "S001"})
	if err != nil || again != id || outcome != OutcomeExisting {
		t.Errorf("已存在学生应返回原 ID: id=%d outcome=%v err=%v", again, outcome, err)
	}
}

func TestResolveOrCreateTeacher_Enrichment(t *testing.T) {
	r, store := setupTestResolver()
	repo := store.repository()
	existing := store.addTeacher("T001", "Zhang", "")

	id, outcome, err := r.ResolveOrCreateTeacher(context.Background(), repo, TeacherSeed{TeacherNo: "T001", Department: "信息学院"})
	if err != nil {
		t.Fatalf("解析教师应成功: %v", err)
	}
	if id != existing.ID || outcome != OutcomeEnriched {
		t.Errorf("期望补全已有教师，实际 id=%d outcome=%v", id, outcome)
	}

	_, outcome, _ = r.ResolveOrCreateTeacher(context.Background(), repo, TeacherSeed{TeacherNo: "T001", Department: "其他学院"})
	if outcome != OutcomeExisting {
		t.Errorf("已有院系不应被覆盖，实际 outcome=%v", outcome)
	}
	if store.teachers[existing.ID].Department != "信息学院" {
		t.Errorf("院系被覆盖: %s", store.teachers[existing.ID].Department)
	}
}

func TestResolveOrCreateTeacher_Create(t *testing.T) {
	r, store := setupTestResolver()
	repo := store.repository()

	id, outcome, err := r.ResolveOrCreateTeacher(context.Background(), repo, TeacherSeed{TeacherNo: "T009", Name: "Li"})
	if err != nil || outcome != OutcomeCreated {
		t.Fatalf("创建教师应成功: outcome=%v err=%v", outcome, err)
	}
	user, err := repo.User.GetByUsername(context.Background(), "T009")
	if err != nil || user.Role != model.RoleTeacher || *user.RefID != id {
		t.Fatalf("教师账号不符: %+v err=%v", user, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("tT009")) != nil {
		t.Error("初始密码应为 t+工号")
	}
}

func TestResolveCourse_NotFound(t *testing.T) {
	r, store := setupTestResolver()
	_, err := r.ResolveCourse(context.Background(), store.repository(), "C404")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("期望 NotFound，实际: %v", err)
	}
}

func TestCreateCourse_LosesRace(t *testing.T) {
	r, store := setupTestResolver()
	winner := store.addCourse("C001", "DB", nil)

	id, outcome, err := r.CreateCourse(context.Background(), store.repository(), &model.Course{CourseCode: "C001", Name: "DB"})
	if err != nil {
		t.Fatalf("唯一约束冲突应转为已存在: %v", err)
	}
	if id != winner.ID || outcome != OutcomeExisting {
		t.Errorf("期望返回先提交者 ID=%d，实际 id=%d outcome=%v", winner.ID, id, outcome)
	}
}

func TestEnsureEnrollment(t *testing.T) {
	r, store := setupTestResolver()
	repo := store.repository()
	st := store.addStudent("S001", "Wang", "CS", 1)
	c := store.addCourse("C001", "DB", nil)

	id, outcome, err := r.EnsureEnrollment(context.Background(), repo, &model.Enrollment{StudentID: st.ID, CourseID: c.ID})
	if err != nil || outcome != OutcomeCreated {
		t.Fatalf("首次插入应成功: outcome=%v err=%v", outcome, err)
	}
	if store.enrollments[id].Status != model.EnrollmentStatusEnrolled {
		t.Errorf("默认状态应为 enrolled")
	}

	again, outcome, err := r.EnsureEnrollment(context.Background(), repo, &model.Enrollment{StudentID: st.ID, CourseID: c.ID})
	if err != nil || again != id || outcome != OutcomeExisting {
		t.Errorf("重复插入应返回已有记录: id=%d outcome=%v err=%v", again, outcome, err)
	}
}
