package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/YuYe10/DB-EX3/internal/model"
)

func newRepoMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewRepository(db), mock, func() { sqlDB.Close() }
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("boom")))
	require.False(t, IsUniqueViolation(nil))
}

func TestStudentRepoListKeys(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, student_no FROM "students"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_no"}).
			AddRow(1, "S001").
			AddRow(2, "S002"))

	keys, err := repo.Student.ListKeys(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"S001": 1, "S002": 2}, keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepoAdvanceSemesters(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	cutoff := time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC)
	now := cutoff.AddDate(0, 6, 0)

	mock.ExpectExec(`UPDATE "students" SET .*current_semester.*=LEAST\(current_semester \+ 1,.*WHERE current_semester < .* AND \(semester_updated_at IS NULL OR semester_updated_at <= .*\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Student.AdvanceSemesters(context.Background(), cutoff, 8, now)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepoUpdateSemesterNotFound(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "students" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Student.UpdateSemester(context.Background(), 99, 3, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepoBackfillDepartment(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE "teachers" SET .*WHERE id = .* AND \(department IS NULL OR department = ''\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "teachers" SET .*WHERE id = .* AND \(department IS NULL OR department = ''\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.Teacher.BackfillDepartment(context.Background(), 1, "计算机学院")
	require.NoError(t, err)
	require.True(t, updated)

	updated, err = repo.Teacher.BackfillDepartment(context.Background(), 1, "数学学院")
	require.NoError(t, err)
	require.False(t, updated, "已有院系时不应覆盖")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepoGetByIDForUpdate(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_code", "name", "ordinary_weight", "final_weight"}).
			AddRow(5, "C001", "数据库", 0.3, 0.7))

	course, err := repo.Course.GetByIDForUpdate(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "C001", course.CourseCode)
	require.NotNil(t, course.OrdinaryWeight)
	require.InDelta(t, 0.3, *course.OrdinaryWeight, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepoCreateReturnsID(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "courses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	course := &model.Course{CourseCode: "C001", Name: "数据库", Credit: 3, Capacity: 60}
	require.NoError(t, repo.Course.Create(context.Background(), course))
	require.EqualValues(t, 11, course.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepoGetByPairNotFound(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "enrollments" WHERE student_id = .* AND course_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Enrollment.GetByPair(context.Background(), 1, 2)
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepoCountByCourse(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT course_id, COUNT\(\*\) AS n FROM "enrollments" WHERE course_id IN .* GROUP BY "course_id"`).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "n"}).AddRow(1, 2).AddRow(3, 5))

	counts, err := repo.Enrollment.CountByCourse(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	require.EqualValues(t, 2, counts[1])
	require.EqualValues(t, 0, counts[2])
	require.EqualValues(t, 5, counts[3])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepoDeleteMissing(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "enrollments" WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Enrollment.Delete(context.Background(), 8)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepoGetByIDForUpdateLocksCourseFirst(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .*course_id.* FROM "enrollments" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow(5))
	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = .* FOR SHARE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_code", "ordinary_weight", "final_weight"}).
			AddRow(5, "C001", 0.3, 0.7))
	mock.ExpectQuery(`SELECT \* FROM "enrollments" WHERE id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "course_id"}).AddRow(9, 1, 5))

	e, err := repo.Enrollment.GetByIDForUpdate(context.Background(), 9)
	require.NoError(t, err)
	require.EqualValues(t, 9, e.ID)
	require.NotNil(t, e.Course)
	require.Equal(t, "C001", e.Course.CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepoGetByIDForUpdateNotFound(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .*course_id.* FROM "enrollments" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}))

	_, err := repo.Enrollment.GetByIDForUpdate(context.Background(), 9)
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepoSetFinalGradesSingleStatement(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	grade := 88.5
	mock.ExpectExec(`UPDATE "enrollments" SET "final_grade"=CASE id WHEN \$1 THEN CAST\(\$2 AS NUMERIC\) WHEN \$3 THEN CAST\(\$4 AS NUMERIC\) END.* WHERE id IN \(\$5,\$6\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.Enrollment.SetFinalGrades(context.Background(), map[int64]*float64{7: nil, 3: &grade})
	require.NoError(t, err)

	// 空批次不发语句
	require.NoError(t, repo.Enrollment.SetFinalGrades(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepoBackfillDepartmentError(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE "teachers" SET`).WillReturnError(errors.New("connection reset"))

	updated, err := repo.Teacher.BackfillDepartment(context.Background(), 1, "计算机学院")
	require.Error(t, err)
	require.False(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMajorPlanRepoSemesters(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT DISTINCT "semester" FROM "major_plan_courses" WHERE plan_id = .* ORDER BY semester`).
		WillReturnRows(sqlmock.NewRows([]string{"semester"}).AddRow(1).AddRow(2).AddRow(4))

	semesters, err := repo.MajorPlan.Semesters(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 4}, semesters)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionWithoutDB(t *testing.T) {
	repo := &Repository{}
	called := false
	err := repo.Transaction(context.Background(), func(tx *Repository) error {
		called = true
		require.Same(t, repo, tx)
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestTransactionRollbackOnError(t *testing.T) {
	repo, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.Transaction(context.Background(), func(tx *Repository) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
