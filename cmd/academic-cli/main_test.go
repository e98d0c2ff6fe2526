package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 参数校验在连接数据库之前完成
func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	cmd := newRootCmd()
	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "import", "import-roster", "roster-template", "export", "stats", "advance-semester", "create-admin"} {
		assert.True(t, names[want], "缺少子命令 %s", want)
	}
}

func TestExportCmd_CourseSelector(t *testing.T) {
	_, err := execute("export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "必须且只能指定一个")

	_, err = execute("export", "--course-id", "1", "--course-code", "C001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "必须且只能指定一个")
}

func TestImportRosterCmd_RequiresTeacher(t *testing.T) {
	_, err := execute("import-roster", "roster.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher-no")

	_, err = execute("import-roster", "roster.xlsx", "--teacher-no", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--teacher-no 不能为空")
}

func TestCreateAdminCmd_PasswordLength(t *testing.T) {
	_, err := execute("create-admin", "--username", "root", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "至少 8 位")
}

func TestImportCmd_ArgCount(t *testing.T) {
	_, err := execute("import")
	require.Error(t, err)
}

func TestOpenWorkbook_RejectsExtension(t *testing.T) {
	_, err := openWorkbook("data.csv", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xlsx")
}
