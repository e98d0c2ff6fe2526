package workbook

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteThenOpen(t *testing.T) {
	courses := NewSheet("courses",
		[]string{"course_code", "name", "credit"},
		[]string{"C001", "DB", "3"},
		[]string{"", "", ""},
		[]string{"C002", " OS ", ""},
	)
	students := NewSheet("students", []string{"student_no", "name", "major"})

	buf, err := Write(courses, students)
	if err != nil {
		t.Fatalf("Write 失败: %v", err)
	}

	book, err := Open(bytes.NewReader(buf.Bytes()), 0)
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}

	s, ok := book.Sheet("courses")
	if !ok {
		t.Fatal("缺少 courses 工作表")
	}
	if len(s.Rows) != 2 {
		t.Fatalf("空行应被跳过，期望 2 行，实际 %d", len(s.Rows))
	}
	if s.Rows[0].Get("course_code") != "C001" || s.Rows[0].Number != 2 {
		t.Errorf("第一行解析错误: %+v", s.Rows[0])
	}
	if s.Rows[1].Get("name") != "OS" {
		t.Errorf("单元格应去除空白，实际 %q", s.Rows[1].Get("name"))
	}
	if s.Rows[1].Number != 3 {
		t.Errorf("期望行号 3，实际 %d", s.Rows[1].Number)
	}

	st, ok := book.Sheet("students")
	if !ok || len(st.Rows) != 0 || len(st.Header) != 3 {
		t.Errorf("空工作表应保留表头: %+v", st)
	}

	names := book.Names()
	if len(names) != 2 || names[0] != "courses" {
		t.Errorf("工作表顺序错误: %v", names)
	}
}

func TestOpen_HeaderIsCaseSensitive(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetName("Sheet1", "students")
	_ = f.SetSheetRow("students", "A1", &[]interface{}{"Student_No", "name"})
	_ = f.SetSheetRow("students", "A2", &[]interface{}{"S001", "王五"})
	buf, _ := f.WriteToBuffer()

	book, err := Open(buf, 0)
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	s, _ := book.Sheet("students")
	if got := s.Rows[0].Get("student_no"); got != "" {
		t.Errorf("表头区分大小写，期望空串，实际 %q", got)
	}
	if got := s.Rows[0].Get("Student_No"); got != "S001" {
		t.Errorf("期望 S001，实际 %q", got)
	}
}

func TestOpen_TooManyRows(t *testing.T) {
	buf, err := Write(NewSheet("students",
		[]string{"student_no"},
		[]string{"S1"}, []string{"S2"}, []string{"S3"},
	))
	if err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	_, err = Open(buf, 2)
	if !errors.Is(err, ErrTooManyRows) {
		t.Errorf("期望 ErrTooManyRows，实际 %v", err)
	}
}

func TestOpen_Garbage(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("not a workbook")), 0)
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("期望 ErrUnreadable，实际 %v", err)
	}
}

func TestRowFirst(t *testing.T) {
	r := NewRow(2, map[string]string{"teacher_department": "", "department": "计算机学院"})
	if got := r.First("teacher_department", "department"); got != "计算机学院" {
		t.Errorf("期望回落到 department，实际 %q", got)
	}
}
